package phone

import (
	"regexp"
	"strings"
)

// Number canonicalization for the two markets the dialer supports (US and
// India). Inputs never carry an explicit country selection, so 10-digit
// numbers are disambiguated by their leading digit: Indian mobile numbers
// start with 6-9, US national numbers do not. This is a deliberate
// product rule for these two numbering plans, not a general solver.
//
// Normalization never fails; invalid input simply produces a string that
// IsValid rejects.

// DefaultCountryCode is applied when no other rule matches.
const DefaultCountryCode = "+1"

var canonicalRe = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// Normalize canonicalizes a user-entered number into E.164-like form
// using the default country code as the last-resort prefix.
func Normalize(input string) string {
	return NormalizeWithDefault(input, DefaultCountryCode)
}

// NormalizeWithDefault is Normalize with an explicit last-resort country code.
func NormalizeWithDefault(input, defaultCC string) string {
	cleaned := stripNonDigits(input)
	if cleaned == "" || cleaned == "+" {
		return ""
	}

	// A leading + means the caller already supplied a country code.
	// Canonical input must round-trip unchanged.
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	digits := cleaned
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits
	case len(digits) == 10:
		if digits[0] >= '6' && digits[0] <= '9' {
			return "+91" + digits
		}
		return "+1" + digits
	case len(digits) > 12:
		// Long enough to already carry a country code.
		return "+" + digits
	default:
		return defaultCC + digits
	}
}

// IsValid reports whether input normalizes to a dialable canonical form.
func IsValid(input string) bool {
	return canonicalRe.MatchString(Normalize(input))
}

func stripNonDigits(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
