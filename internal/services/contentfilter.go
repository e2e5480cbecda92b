package services

import (
	"regexp"
	"unicode"
)

// Verdict is the outcome of inspecting one piece of free text.
type Verdict struct {
	Safe   bool
	Reason string
}

// Reasons form a fixed taxonomy; callers may branch on them.
const (
	ReasonProfanity        = "profanity detected"
	ReasonSQLInjection     = "sql injection pattern detected"
	ReasonMarkupInjection  = "markup injection pattern detected"
	ReasonTooLong          = "text exceeds maximum length"
	ReasonExcessiveSymbols = "excessive special characters detected"
)

// FilterRule pairs a pattern with the reason reported on match.
type FilterRule struct {
	Pattern *regexp.Regexp
	Reason  string
}

var defaultFilterRules = []FilterRule{
	// Profanity, whole words only.
	{regexp.MustCompile(`(?i)\b(fuck|shit|damn|bitch|asshole|bastard|crap)\b`), ReasonProfanity},

	// SQL keyword, quote/comment/terminator, and "=...quote-or-dashes" heuristics.
	{regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|create|alter|exec|execute|union|script)\b`), ReasonSQLInjection},
	{regexp.MustCompile(`'|\\'|;|--|/\*|\*/|%27|%22`), ReasonSQLInjection},
	{regexp.MustCompile(`(?i)(%3d|=)[^\n]*(%27|'|--|%3b|;)`), ReasonSQLInjection},

	// Script/markup injection.
	{regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`), ReasonMarkupInjection},
	{regexp.MustCompile(`(?i)javascript:`), ReasonMarkupInjection},
	{regexp.MustCompile(`(?i)on\w+\s*=`), ReasonMarkupInjection},
	{regexp.MustCompile(`(?i)<iframe[^>]*>`), ReasonMarkupInjection},
	{regexp.MustCompile(`(?i)<object[^>]*>`), ReasonMarkupInjection},
	{regexp.MustCompile(`(?i)<embed[^>]*>`), ReasonMarkupInjection},
}

// ContentFilter classifies free text against an ordered, immutable rule set
// plus length and special-character-ratio heuristics. The first failing rule
// wins; rules are never combined or scored.
type ContentFilter struct {
	rules        []FilterRule
	maxLength    int
	symbolRatio  float64
	symbolMinLen int
}

// NewContentFilter returns a filter with the default rule set.
func NewContentFilter() *ContentFilter {
	return NewContentFilterWithRules(defaultFilterRules)
}

// NewContentFilterWithRules returns a filter evaluating the given rules in
// order, followed by the built-in length and symbol-ratio checks.
func NewContentFilterWithRules(rules []FilterRule) *ContentFilter {
	return &ContentFilter{
		rules:        rules,
		maxLength:    10000,
		symbolRatio:  0.5,
		symbolMinLen: 100,
	}
}

// Inspect classifies text. Empty input is always safe. Inspect is pure: it
// never mutates anything and always returns the same verdict for the same
// input.
func (f *ContentFilter) Inspect(text string) Verdict {
	if text == "" {
		return Verdict{Safe: true}
	}

	for _, rule := range f.rules {
		if rule.Pattern.MatchString(text) {
			return Verdict{Safe: false, Reason: rule.Reason}
		}
	}

	runes := []rune(text)
	if len(runes) > f.maxLength {
		return Verdict{Safe: false, Reason: ReasonTooLong}
	}

	// Guard against encoded-payload smuggling: long text that is mostly
	// symbols is rejected outright.
	if len(runes) > f.symbolMinLen {
		special := 0
		for _, r := range runes {
			if !isPlain(r) {
				special++
			}
		}
		if float64(special)/float64(len(runes)) > f.symbolRatio {
			return Verdict{Safe: false, Reason: ReasonExcessiveSymbols}
		}
	}

	return Verdict{Safe: true}
}

func isPlain(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return unicode.IsSpace(r)
	}
}
