// Package contentfilter validates and sanitizes student-supplied text
// before it reaches the model or any storage. All functions are pure and
// safe for concurrent use.
package contentfilter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the fallback message length ceiling in runes.
const DefaultMaxLength = 1000

// Result is the outcome of validating a single piece of input.
// Sanitized is only meaningful when IsValid is true.
type Result struct {
	IsValid   bool   `json:"isValid"`
	Error     string `json:"error,omitempty"`
	Sanitized string `json:"sanitized,omitempty"`
}

// Options selects which checks ValidateAndSanitize runs.
type Options struct {
	MaxLength            int
	CheckProfanity       bool
	CheckPromptInjection bool
	CheckPersonalInfo    bool
}

// DefaultOptions enables every check with the default length ceiling.
func DefaultOptions() Options {
	return Options{
		MaxLength:            DefaultMaxLength,
		CheckProfanity:       true,
		CheckPromptInjection: true,
		CheckPersonalInfo:    true,
	}
}

// SanitizeHTML escapes &, <, >, " and ' in that order. Ampersand goes
// first so entities introduced by the later substitutions are not
// double-escaped.
func SanitizeHTML(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, `"`, "&quot;")
	text = strings.ReplaceAll(text, "'", "&#39;")
	return text
}

// ContainsProfanity reports whether the text matches any blacklisted
// word, including leetspeak-obfuscated spellings. Matching is
// case-insensitive and word-boundary-bounded.
func ContainsProfanity(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	for _, p := range profanityPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// DetectPromptInjection reports whether the text contains an
// instruction-override phrasing.
func DetectPromptInjection(text string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ContainsPersonalInfo reports whether the text looks like it carries
// personal data (phone numbers, e-mail, URLs, postal codes).
func ContainsPersonalInfo(text string) bool {
	for _, p := range personalInfoPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ValidateAndSanitize runs the configured checks in a fixed order, each
// short-circuiting with its own user-facing error. The profanity,
// injection and personal-info checks run against the sanitized text so
// injected markup cannot split a blacklisted word, and the same
// sanitized value is what callers get back.
func ValidateAndSanitize(text string, opts Options) Result {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if strings.TrimSpace(text) == "" {
		return Result{Error: "Wiadomość nie może być pusta."}
	}
	if utf8.RuneCountInString(text) > maxLength {
		return Result{Error: fmt.Sprintf("Wiadomość jest zbyt długa (maksymalnie %d znaków).", maxLength)}
	}

	sanitized := SanitizeHTML(text)

	if opts.CheckProfanity && ContainsProfanity(sanitized) {
		return Result{Error: "Wiadomość zawiera niedozwolone słowa."}
	}
	if opts.CheckPromptInjection && DetectPromptInjection(sanitized) {
		return Result{Error: "Wykryto próbę manipulacji. Zadaj pytanie związane z matematyką."}
	}
	if opts.CheckPersonalInfo && ContainsPersonalInfo(sanitized) {
		return Result{Error: "Nie podawaj danych osobowych w wiadomości."}
	}

	return Result{IsValid: true, Sanitized: sanitized}
}

// ValidateFormInput validates a free-text form field (problem
// description, interests). Only the length and profanity checks apply;
// the field name is prefixed to any error.
func ValidateFormInput(text, fieldName string, maxLength int) Result {
	res := ValidateAndSanitize(text, Options{
		MaxLength:      maxLength,
		CheckProfanity: true,
	})
	if !res.IsValid && fieldName != "" {
		res.Error = fieldName + ": " + res.Error
	}
	return res
}
