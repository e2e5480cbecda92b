package services

import (
	"fmt"
	"regexp"
)

// ValidationResult aggregates every violation found in one submission.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var responseIDPattern = regexp.MustCompile(`^TLC-LH-\d+$`)

// Validator checks the structural and semantic correctness of a submission's
// typed fields. It is independent of content safety: a field can be valid
// here and still be dropped by the sanitizer later.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate runs every declared rule and collects all violations; checks do
// not short-circuit across fields. Missing fields are skipped, never
// required.
func (v *Validator) Validate(sub *Submission) ValidationResult {
	if sub == nil {
		return ValidationResult{Valid: false, Errors: []string{"invalid data structure"}}
	}

	var errs []string

	for _, rule := range numericRules {
		opt := rule.value(sub)
		if !opt.Present() {
			continue
		}
		n, ok := opt.Value()
		if !ok || n < rule.min || n > rule.max {
			errs = append(errs, rule.message)
		}
	}

	for _, rule := range ratingRules {
		opt := rule.value(sub)
		if !opt.Present() {
			continue
		}
		n, ok := opt.Value()
		if !ok || n < ratingMin || n > ratingMax {
			errs = append(errs, fmt.Sprintf("invalid rating value for %s", rule.name))
		}
	}

	for _, rule := range textRules {
		if rule.maxLen == 0 {
			continue
		}
		val := rule.value(sub)
		if val == nil {
			continue
		}
		if len([]rune(*val)) > rule.maxLen {
			errs = append(errs, fmt.Sprintf("%s exceeds maximum length", rule.name))
		}
	}

	if sub.ResponseID != nil && !responseIDPattern.MatchString(*sub.ResponseID) {
		errs = append(errs, "invalid response ID format")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
