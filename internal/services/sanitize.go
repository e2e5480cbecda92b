package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SanitizeResult carries the cleaned submission and the issues encountered.
// Issues are informational: sanitization degrades gracefully by nulling
// unsafe content instead of rejecting the whole submission.
type SanitizeResult struct {
	Sanitized *Submission
	Issues    []string
}

// Sanitizer runs the content filter over every free-text field, trims
// whitespace, strips control characters, and repairs the embedded bug-list
// JSON field.
type Sanitizer struct {
	filter *ContentFilter
}

func NewSanitizer(filter *ContentFilter) *Sanitizer {
	return &Sanitizer{filter: filter}
}

// Sanitize never mutates its input; it operates on a shallow copy and
// replaces field pointers rather than the strings they point to.
func (s *Sanitizer) Sanitize(sub *Submission) SanitizeResult {
	cleaned := *sub
	var issues []string

	for _, rule := range textRules {
		val := rule.value(&cleaned)
		if val == nil {
			continue
		}
		verdict := s.filter.Inspect(*val)
		if !verdict.Safe {
			issues = append(issues, fmt.Sprintf("%s: %s", rule.name, verdict.Reason))
			rule.assign(&cleaned, nil)
			continue
		}
		out := stripControl(strings.TrimSpace(*val))
		rule.assign(&cleaned, &out)
	}

	if cleaned.CommonBugsExperienced != nil {
		list, issue := s.sanitizeBugList(*cleaned.CommonBugsExperienced)
		if issue != "" {
			issues = append(issues, issue)
		}
		cleaned.CommonBugsExperienced = list
	}

	return SanitizeResult{Sanitized: &cleaned, Issues: issues}
}

// sanitizeBugList parses a JSON-encoded bug list, keeps only elements that
// pass the content filter, and re-encodes the survivors. Unparsable input is
// dropped entirely; a parse that is valid JSON but not an array is passed
// through unfiltered.
func (s *Sanitizer) sanitizeBugList(raw string) (*string, string) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, "commonBugsExperienced: invalid JSON"
	}
	list, ok := parsed.([]any)
	if !ok {
		return &raw, ""
	}
	kept := make([]any, 0, len(list))
	for _, el := range list {
		if s.filter.Inspect(elementString(el)).Safe {
			kept = append(kept, el)
		}
	}
	encoded, err := json.Marshal(kept)
	if err != nil {
		return nil, "commonBugsExperienced: invalid JSON"
	}
	out := string(encoded)
	return &out, ""
}

func elementString(el any) string {
	if s, ok := el.(string); ok {
		return s
	}
	return fmt.Sprint(el)
}

// stripControl removes the C0 control range and DEL.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
