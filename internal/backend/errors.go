package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidAddress means the configured server address cannot be
	// parsed into a usable URL
	ErrInvalidAddress = errors.New("invalid server address")

	// ErrNoData means the response body was empty where content was
	// expected
	ErrNoData = errors.New("empty response from server")
)

// DecodeError means the response body was present but did not match
// the expected JSON or HTML shape
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode server response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NetworkError is a transport-level failure: DNS, TLS, timeout,
// connection refused
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx HTTP response from the backend
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// StatusCSRFExpired is the Laravel-style "page expired" status the
// backend answers with when the CSRF token has gone stale
const StatusCSRFExpired = 419

// UserMessage turns a taxonomy error into a dismissable title and
// message pair for the operator. It never retries and never swallows
// detail the operator could act on.
func UserMessage(err error) (title, message string) {
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		switch srvErr.StatusCode {
		case http.StatusUnauthorized:
			return "Session expired", "Your session has expired. Please log in again."
		case http.StatusForbidden:
			return "Forbidden", "The server refused the request. Your account may lack permission for this operation."
		case http.StatusNotFound:
			return "Endpoint not found", "The server endpoint was not found. Check the configured server address."
		case StatusCSRFExpired:
			return "Security token expired", "The security token is stale. Restart the app or reload the login page."
		case http.StatusUnprocessableEntity:
			return "Validation failed", "The server rejected the submitted data. Check the scanned code and selections."
		case http.StatusInternalServerError:
			return "Server error", "The server hit an internal error. Try again later."
		}
		return "Server error", fmt.Sprintf("The server returned an unexpected status (%d).", srvErr.StatusCode)
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Connection failed", "Could not reach the server. Check your network connection and the configured address."
	}

	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return "Unexpected response", "The server response could not be understood."
	}

	switch {
	case errors.Is(err, ErrInvalidAddress):
		return "Invalid address", "The configured server address is not a valid URL."
	case errors.Is(err, ErrNoData):
		return "Empty response", "The server returned no data."
	}

	return "Error", err.Error()
}
