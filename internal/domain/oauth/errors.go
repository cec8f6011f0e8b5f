package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrStateNotFound covers both unknown and already-consumed states; a
	// replayed callback must be indistinguishable from an unknown one.
	ErrStateNotFound = errors.New("oauth: state not found")
	// ErrStateMismatch indicates the echoed secret did not match the stored one.
	ErrStateMismatch = errors.New("oauth: state secret mismatch")
	// ErrMalformedState indicates the callback state was not in id:secret shape.
	ErrMalformedState = errors.New("oauth: malformed state")
	// ErrMissingCode indicates the callback carried no authorization code.
	ErrMissingCode = errors.New("oauth: missing authorization code")
	// ErrMalformedResponse indicates the provider reported success without a token.
	ErrMalformedResponse = errors.New("oauth: token response missing access_token")
	// ErrTokenNotFound signals a lookup of a token record that does not exist.
	ErrTokenNotFound = errors.New("oauth: token record not found")
)

// ProviderError is an authentication failure reported by the provider on the
// callback itself, before any code exchange took place.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("oauth: provider error %s: %s", e.Code, e.Description)
}

// RejectedError is a code exchange the provider refused, either with a
// non-200 status or a body status other than "ok".
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("oauth: exchange rejected (status %d): %s", e.StatusCode, e.Message)
}

// NetworkError wraps a transport-level exchange failure (connection refused,
// timeout, TLS). The exchange is never retried: the code it carried is
// single-use and invalidated by the provider on first presentation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("oauth: exchange transport failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
