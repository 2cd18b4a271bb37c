package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindHTTPStatus      Kind = "http_status"
	KindInvalidResponse Kind = "invalid_upstream_response"
)

// Error is the single error type the fetch services return.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"` // 0 when no response arrived
	Endpoint   string `json:"endpoint"`
	Retryable  bool   `json:"retryable"`
	Err        error  `json:"-"`
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Endpoint, e.Message, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsRetryable reports whether err is a fetch error worth retrying.
func IsRetryable(err error) bool {
	fe, ok := AsError(err)
	return ok && fe.Retryable
}

func networkError(endpoint string, err error) *Error {
	return &Error{
		Kind:      KindNetwork,
		Message:   fmt.Sprintf("Could not reach the %s endpoint", endpoint),
		Endpoint:  endpoint,
		Retryable: true,
		Err:       err,
	}
}

func statusError(endpoint string, status int) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		Message:    statusMessage(status),
		StatusCode: status,
		Endpoint:   endpoint,
		Retryable:  status == http.StatusInternalServerError,
	}
}

func invalidResponse(endpoint string, status int, err error) *Error {
	return &Error{
		Kind:       KindInvalidResponse,
		Message:    "The upstream returned a response that could not be read",
		StatusCode: status,
		Endpoint:   endpoint,
		Err:        err,
	}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The upstream rejected the request parameters"
	case http.StatusNotFound:
		return "The requested resource was not found"
	case http.StatusRequestEntityTooLarge:
		return "The requested page is too large, lower the page limit"
	case http.StatusInternalServerError:
		return "The upstream server failed, try again later"
	default:
		return fmt.Sprintf("Unexpected upstream status %d", status)
	}
}
