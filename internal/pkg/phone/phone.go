package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalid indicates the input cannot be normalized to a valid E.164 number.
var ErrInvalid = errors.New("phone: invalid phone number format")

// E.164: "+", a non-zero leading digit, 7 to 15 digits total.
var reE164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

var stripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// Normalize converts raw input to canonical E.164 form.
//
// Rules, applied in order:
//   - whitespace, hyphens and parentheses are stripped
//   - a Russian trunk number ("8" + 10 digits) becomes "+7" + 10 digits
//   - a Russian number without "+" ("7" + 10 digits) gets a "+" prefix
//   - any other number without "+" gets a "+" prefix
//
// The result must match ^\+[1-9]\d{6,14}$ or ErrInvalid is returned.
func Normalize(raw string) (string, error) {
	p := stripper.Replace(strings.TrimSpace(raw))
	if p == "" {
		return "", ErrInvalid
	}

	switch {
	case len(p) == 11 && strings.HasPrefix(p, "8"):
		p = "+7" + p[1:]
	case len(p) == 11 && strings.HasPrefix(p, "7"):
		p = "+" + p
	case !strings.HasPrefix(p, "+"):
		p = "+" + p
	}

	if !reE164.MatchString(p) {
		return "", ErrInvalid
	}

	return p, nil
}

// IsValid reports whether raw normalizes to a valid E.164 number.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
