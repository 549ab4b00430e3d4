package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream failure for the calling UI
type ErrorKind string

const (
	// KindValidation: the upstream rejected the request payload
	KindValidation ErrorKind = "validation"

	// KindAuth: 401 unresolved after one refresh attempt, or forbidden
	KindAuth ErrorKind = "auth"

	// KindNetwork: transport failure or upstream 5xx
	KindNetwork ErrorKind = "network"
)

// APIError is a typed upstream failure. It is returned, never panicked,
// across the wizard boundary.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// KindOf extracts the error kind, defaulting unknown errors to network
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetwork
}

// IsAuth reports whether the error is an authentication failure
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsValidation reports whether the error is a payload rejection
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
