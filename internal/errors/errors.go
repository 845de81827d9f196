// Package errors provides custom error types for the lmchat endpoint client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrInvalidResponse = errors.New("invalid response format")
	ErrEmptySessionID  = errors.New("session id is empty")
	ErrClientClosed    = errors.New("client is closed")
)

// EndpointError represents a request that reached the endpoint but came back
// with a failure status and an explicit error message.
type EndpointError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *EndpointError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("endpoint error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("endpoint error at %s: %s", e.Endpoint, e.Message)
}

// Is allows comparison with another EndpointError
func (e *EndpointError) Is(target error) bool {
	_, ok := target.(*EndpointError)
	return ok
}

// NewEndpointError creates a new EndpointError
func NewEndpointError(statusCode int, endpoint, message string) *EndpointError {
	return &EndpointError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// TransportError represents a request that could not complete: the connection
// failed, or the response body could not be understood.
type TransportError struct {
	Endpoint string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("transport error at %s", e.Endpoint)
	}
	return fmt.Sprintf("transport error at %s: %v", e.Endpoint, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with another TransportError
func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

// NewTransportError creates a new TransportError
func NewTransportError(endpoint string, cause error) *TransportError {
	return &TransportError{Endpoint: endpoint, Cause: cause}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error at %q: %s", e.Path, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsEndpointError reports whether err is or wraps an EndpointError.
func IsEndpointError(err error) bool {
	var e *EndpointError
	return errors.As(err, &e)
}

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// GetHTTPStatus extracts the status code from an EndpointError, or 0.
func GetHTTPStatus(err error) int {
	var e *EndpointError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Describe returns the user-facing text for an error: the endpoint's own
// message for an EndpointError, the underlying cause for a TransportError.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var endpointErr *EndpointError
	if errors.As(err, &endpointErr) {
		return endpointErr.Message
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.Cause != nil {
		return transportErr.Cause.Error()
	}

	return err.Error()
}
