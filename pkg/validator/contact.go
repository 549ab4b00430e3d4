package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates the contact phone is missing
	ErrEmptyPhone = errors.New("contact phone cannot be empty")

	// ErrInvalidPhone indicates the phone does not match the accepted shape
	ErrInvalidPhone = errors.New("contact phone must be 10-15 digits with an optional leading +")

	// ErrEmptyEmail indicates the contact email is missing
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates the email does not match the accepted shape
	ErrInvalidEmail = errors.New("email must look like name@domain.tld")
)

// phoneRegex accepts an optional leading + followed by 10 to 15 digits
var phoneRegex = regexp.MustCompile(`^\+?\d{10,15}$`)

// emailRegex is a shape check, not an RFC 5322 parser
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactValidator validates booking contact details
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// ValidatePhone validates a contact phone number.
// Accepts formats like +79991234567 or 79991234567, tolerating spaces,
// dashes and parentheses. Returns the sanitized number and an error if invalid.
func (v *ContactValidator) ValidatePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.SanitizePhone(phone)
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidPhone
	}

	return sanitized, nil
}

// SanitizePhone removes common separator characters from a phone number
func (v *ContactValidator) SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	return phone
}

// ValidateEmail validates a contact email address shape
func (v *ContactValidator) ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}

	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}

	return email, nil
}

// IsValidPhone is a convenience method that returns true if phone is valid
func (v *ContactValidator) IsValidPhone(phone string) bool {
	_, err := v.ValidatePhone(phone)
	return err == nil
}

// IsValidEmail is a convenience method that returns true if email is valid
func (v *ContactValidator) IsValidEmail(email string) bool {
	_, err := v.ValidateEmail(email)
	return err == nil
}
