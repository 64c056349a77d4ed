// file: internal/authorizer/errors.go

package authorizer

import (
	"errors"
	"fmt"
)

// TransportError indicates a network-level failure talking to the token
// endpoint: connection refused, DNS failure, timeout.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("token request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IsTransportError returns true if the error is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ProtocolError indicates the token endpoint answered, but with an error
// response or a success response that could not be understood.
type ProtocolError struct {
	StatusCode int // 0 when the failure is not tied to an HTTP status
	Cause      error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token endpoint returned status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("token response invalid: %v", e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// EncodingError indicates an issued token cannot be carried as an
// authorization header value.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("token cannot be used as a header value: %s", e.Reason)
}

// IsEncodingError returns true if the error is an EncodingError.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}

// UnavailableError is returned by the header read path while the cache
// holds a failed state. It wraps the fetch failure that caused it.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("no valid token available: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// IsUnavailableError returns true if the error is an UnavailableError.
func IsUnavailableError(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
