package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone_Valid(t *testing.T) {
	v := NewContactValidator()

	tests := []struct {
		input string
		want  string
	}{
		{"+79991234567", "+79991234567"},
		{"79991234567", "79991234567"},
		{"+7 (999) 123-45-67", "+79991234567"},
		{"  +380501234567  ", "+380501234567"},
		{"123456789012345", "123456789012345"},
	}

	for _, tt := range tests {
		got, err := v.ValidatePhone(tt.input)
		assert.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidatePhone_Invalid(t *testing.T) {
	v := NewContactValidator()

	tests := []struct {
		input   string
		wantErr error
	}{
		{"", ErrEmptyPhone},
		{"   ", ErrEmptyPhone},
		{"12345", ErrInvalidPhone},
		{"1234567890123456", ErrInvalidPhone},
		{"phone me", ErrInvalidPhone},
		{"++79991234567", ErrInvalidPhone},
	}

	for _, tt := range tests {
		_, err := v.ValidatePhone(tt.input)
		assert.ErrorIs(t, err, tt.wantErr, "input %q", tt.input)
	}
}

func TestValidateEmail(t *testing.T) {
	v := NewContactValidator()

	valid := []string{"user@example.com", "a.b@sub.domain.org", " padded@mail.ru "}
	for _, email := range valid {
		_, err := v.ValidateEmail(email)
		assert.NoError(t, err, "input %q", email)
	}

	invalid := map[string]error{
		"":               ErrEmptyEmail,
		"plainaddress":   ErrInvalidEmail,
		"no domain@x":    ErrInvalidEmail,
		"user@nodot":     ErrInvalidEmail,
		"user @mail.com": ErrInvalidEmail,
	}
	for email, wantErr := range invalid {
		_, err := v.ValidateEmail(email)
		assert.ErrorIs(t, err, wantErr, "input %q", email)
	}
}

func TestConvenienceHelpers(t *testing.T) {
	v := NewContactValidator()

	assert.True(t, v.IsValidPhone("+79991234567"))
	assert.False(t, v.IsValidPhone("nope"))
	assert.True(t, v.IsValidEmail("user@example.com"))
	assert.False(t, v.IsValidEmail("nope"))
}
