// Package policy evaluates candidate passwords against the signup password
// policy: five independent predicates combined into one admissibility flag.
//
// Evaluation is pure and synchronous so callers can re-run it on every change
// of the password input.
package policy

import (
	"regexp"
	"unicode/utf8"
)

// MinLength is the minimum number of characters an admissible password has.
const MinLength = 8

// SpecialChars is the fixed punctuation set that satisfies the special
// character rule.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[` + regexp.QuoteMeta(SpecialChars) + `]`)
)

// Result holds the outcome of every policy predicate for one password.
type Result struct {
	LengthOK   bool `json:"length_ok"`
	HasUpper   bool `json:"has_upper"`
	HasLower   bool `json:"has_lower"`
	HasDigit   bool `json:"has_digit"`
	HasSpecial bool `json:"has_special"`
}

// Rule is one rendered policy indicator.
type Rule struct {
	Label  string
	Passed bool
}

// Evaluate checks password against every predicate. It never fails.
func Evaluate(password string) Result {
	return Result{
		LengthOK:   utf8.RuneCountInString(password) >= MinLength,
		HasUpper:   upperRe.MatchString(password),
		HasLower:   lowerRe.MatchString(password),
		HasDigit:   digitRe.MatchString(password),
		HasSpecial: specialRe.MatchString(password),
	}
}

// Admissible reports whether all five predicates hold.
func (r Result) Admissible() bool {
	return r.LengthOK && r.HasUpper && r.HasLower && r.HasDigit && r.HasSpecial
}

// Rules returns the indicators in display order.
func (r Result) Rules() []Rule {
	return []Rule{
		{Label: "At least 8 characters", Passed: r.LengthOK},
		{Label: "At least one uppercase letter", Passed: r.HasUpper},
		{Label: "At least one lowercase letter", Passed: r.HasLower},
		{Label: "At least one number", Passed: r.HasDigit},
		{Label: "At least one special character", Passed: r.HasSpecial},
	}
}

// Failed returns the labels of unmet rules, in display order.
func (r Result) Failed() []string {
	var failed []string
	for _, rule := range r.Rules() {
		if !rule.Passed {
			failed = append(failed, rule.Label)
		}
	}
	return failed
}
