package phone

import "testing"

func TestNormalizeIndianMobilePrefix(t *testing.T) {
	for _, in := range []string{"9876543210", "8007742678", "7012345678", "6123456789"} {
		got := Normalize(in)
		if got != "+91"+in {
			t.Fatalf("expected +91%s, got %s", in, got)
		}
	}
}

func TestNormalizeUSTenDigit(t *testing.T) {
	for _, in := range []string{"5551234567", "4155552671", "2125551234"} {
		got := Normalize(in)
		if got != "+1"+in {
			t.Fatalf("expected +1%s, got %s", in, got)
		}
	}
}

func TestNormalizeElevenAndTwelveDigits(t *testing.T) {
	if got := Normalize("15551234567"); got != "+15551234567" {
		t.Fatalf("expected +15551234567, got %s", got)
	}
	if got := Normalize("919876543210"); got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %s", got)
	}
}

func TestNormalizeLongInternational(t *testing.T) {
	if got := Normalize("4412345678901"); got != "+4412345678901" {
		t.Fatalf("expected +4412345678901, got %s", got)
	}
}

func TestNormalizeStripsFormatting(t *testing.T) {
	if got := Normalize("(555) 123-4567"); got != "+15551234567" {
		t.Fatalf("expected +15551234567, got %s", got)
	}
	if got := Normalize("+91 98765 43210"); got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %s", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"+15551234567", "+919876543210", "+8007742678", "+4412345678901"} {
		if got := Normalize(in); got != in {
			t.Fatalf("canonical %s changed to %s", in, got)
		}
	}
}

func TestNormalizeFallbackDefault(t *testing.T) {
	if got := Normalize("12345"); got != "+112345" {
		t.Fatalf("expected +112345, got %s", got)
	}
	if got := NormalizeWithDefault("12345", "+44"); got != "+4412345" {
		t.Fatalf("expected +4412345, got %s", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if IsValid("") {
		t.Fatalf("empty input must be invalid")
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"8007742678", "+15551234567", "15551234567", "919876543210"}
	for _, in := range valid {
		if !IsValid(in) {
			t.Fatalf("expected %q valid", in)
		}
	}
	invalid := []string{"", "abc", "123", "+"}
	for _, in := range invalid {
		if IsValid(in) {
			t.Fatalf("expected %q invalid", in)
		}
	}
}
