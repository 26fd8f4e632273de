package retryclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a transport failure for retry purposes.
type ErrorKind int

const (
	// NetworkError covers connection failures, timeouts and anything unclassified. Retryable.
	NetworkError ErrorKind = iota
	// ServerError is a 5xx-class (or throttling) answer from the remote service. Retryable.
	ServerError
	// ClientError means the service rejected the request itself. Not retryable.
	ClientError
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case ServerError:
		return "server"
	case ClientError:
		return "client"
	default:
		return "unknown"
	}
}

// TransportError is returned by transports so the client never has to inspect
// error text to decide whether to retry.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func NewTransportError(kind ErrorKind, statusCode int, err error) *TransportError {
	return &TransportError{Kind: kind, StatusCode: statusCode, Err: err}
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error", e.Kind)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindFromStatus maps an HTTP status code onto an ErrorKind. Request timeouts
// and rate limiting are 4xx codes but are worth retrying.
func KindFromStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return ServerError
	case statusCode >= 400 && statusCode < 500:
		return ClientError
	case statusCode >= 500:
		return ServerError
	default:
		return NetworkError
	}
}

// KindOf extracts the classification carried by err. Errors that were not
// classified by a transport are treated as network errors.
func KindOf(err error) ErrorKind {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Kind
	}
	return NetworkError
}

// CircuitOpenError is returned without any network attempt while the breaker is open.
type CircuitOpenError struct {
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return "The API is temporarily unavailable (Circuit Breaker is open). Please try again later."
}

// ClientRequestError wraps a non-retryable rejection. Its message is the
// remote service's own message.
type ClientRequestError struct {
	Err error
}

func (e *ClientRequestError) Error() string {
	return e.Err.Error()
}

func (e *ClientRequestError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError is returned once every attempt failed with a retryable error.
type ExhaustedRetriesError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("Failed to communicate with the %s API after multiple attempts. Please try again later.", e.Provider)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}
