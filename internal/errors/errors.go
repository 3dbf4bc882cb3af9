package errors

import (
	"errors"
	"fmt"
)

// Error kinds shared by the session, api, sso and auth packages
var (
	// Input errors, raised before any network call
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = errors.New("missing credential")

	// SSO errors
	ErrMissingCookie      = errors.New("login cookie was not captured")
	ErrMalformedResponse  = errors.New("unexpected bearer-token response format")
	ErrMissingToken       = errors.New("bearer token was not returned")
	ErrExchangeInProgress = errors.New("sso exchange already in progress")
	ErrCancelled          = errors.New("cancelled")

	// API errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrServer         = errors.New("server error")
	ErrNetworkFailure = errors.New("network failure")

	// Setup errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// APIError is a non-2xx response from the platform API. Message is already
// sanitised for display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Is matches ErrUnauthorized for 401 and ErrServer for everything else.
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 401 {
		return target == ErrUnauthorized
	}
	return target == ErrServer
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network failure: %v", e.Cause)
	}
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Is(target error) bool { return target == ErrNetworkFailure }

// StoreError is a failure of the backing secret store.
type StoreError struct {
	Operation string // "load", "save", "clear"
	Cause     error
}

func (e *StoreError) Error() string {
	if e.Cause == nil {
		return e.Operation + " session"
	}
	return e.Operation + " session: " + e.Cause.Error()
}

func (e *StoreError) Unwrap() error { return e.Cause }
