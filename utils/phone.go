package utils

import (
	"regexp"
	"strings"
)

// Kenyan mobile numbers: an optional +254 / 254 country code or a 0 trunk
// prefix, then 9 digits beginning with 1 or 7.
var kenyanPhonePattern = regexp.MustCompile(`^(?:\+254|254|0)([17]\d{8})$`)

var whitespaceReplacer = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")

// PhoneError describes why a phone number was rejected. Missing reports
// whether the input was empty as opposed to malformed.
type PhoneError struct {
	Missing bool
	Reason  string
}

func (e *PhoneError) Error() string {
	return e.Reason
}

// stripPhone removes all whitespace so "0712 345 678" and "0712345678"
// are treated as the same input.
func stripPhone(raw string) string {
	return whitespaceReplacer.Replace(raw)
}

// subscriberNumber extracts the 9-digit subscriber part, accepting the
// trunk-prefixed, bare country-code and plus-prefixed forms as equivalent.
func subscriberNumber(raw string) (string, *PhoneError) {
	stripped := stripPhone(raw)
	if stripped == "" {
		return "", &PhoneError{Missing: true, Reason: "phone number is required"}
	}

	match := kenyanPhonePattern.FindStringSubmatch(stripped)
	if match == nil {
		return "", &PhoneError{Reason: "invalid phone number, use a Kenyan mobile number such as 0712345678"}
	}

	return match[1], nil
}

// ValidatePhoneNumber reports whether the input is a valid Kenyan mobile
// number. The returned error is nil on success and a *PhoneError otherwise.
func ValidatePhoneNumber(raw string) error {
	if _, err := subscriberNumber(raw); err != nil {
		return err
	}
	return nil
}

// NormalizePhoneNumber canonicalizes the input into the gateway wire form:
// country-code-prefixed digits with no symbol, e.g. "254712345678".
func NormalizePhoneNumber(raw string) (string, error) {
	subscriber, err := subscriberNumber(raw)
	if err != nil {
		return "", err
	}
	return "254" + subscriber, nil
}

// FormatPhoneNumber canonicalizes the input into the display form,
// e.g. "+254 712345678".
func FormatPhoneNumber(raw string) (string, error) {
	subscriber, err := subscriberNumber(raw)
	if err != nil {
		return "", err
	}
	return "+254 " + subscriber, nil
}
