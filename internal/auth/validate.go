package auth

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// US phone formats: 555-123-4567, (555) 123-4567, 5551234567,
	// +1 555 123 4567.
	phonePattern = regexp.MustCompile(`^(\+?1[\s.\-]?)?(\(\d{3}\)|\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}$`)
)

// ErrInvalidEmail is returned when an email fails the address pattern.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrInvalidPhone is returned when a phone number fails the US pattern.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address against a standard pattern.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks an optional US phone number. Empty is allowed.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}
