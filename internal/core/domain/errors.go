package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid (empty query, malformed upload)
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an uploaded file type cannot be parsed
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIndexUnavailable indicates a lexical or vector index could not be queried
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrModelInference indicates an embedding, reranker or LLM call failed
	ErrModelInference = errors.New("model inference failed")

	// ErrPersistence indicates a booking could not be stored
	ErrPersistence = errors.New("persistence failed")

	// ErrPoolSaturated indicates the inference pool rejected work
	ErrPoolSaturated = errors.New("inference pool saturated")

	// ErrSessionBusy indicates the session lock could not be acquired in time
	ErrSessionBusy = errors.New("session busy")

	// ErrUnknownBackend indicates the requested LLM backend is not registered
	ErrUnknownBackend = errors.New("unknown llm backend")

	// ErrServiceUnavailable indicates a dependency could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)

// InferenceError is a classified model failure.
// Transient failures (timeouts, rate limits, 5xx) are retried once;
// the rest (malformed structured output, bad request) are not.
type InferenceError struct {
	Op        string
	Backend   string
	Transient bool
	Err       error
}

func (e *InferenceError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Backend != "" {
		return fmt.Sprintf("%s (%s, %s): %v", e.Op, e.Backend, kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, kind, e.Err)
}

func (e *InferenceError) Unwrap() []error {
	return []error{ErrModelInference, e.Err}
}

// NewInferenceError wraps err, inferring transience when not forced.
func NewInferenceError(op, backend string, err error) *InferenceError {
	return &InferenceError{Op: op, Backend: backend, Transient: IsTransient(err), Err: err}
}

// PersistenceError is a classified booking store failure.
type PersistenceError struct {
	Retryable bool
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("persistence (retryable): %v", e.Err)
	}
	return fmt.Sprintf("persistence (terminal): %v", e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// StatusError carries an upstream HTTP status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Transient
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Retryable
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrPoolSaturated) ||
		errors.Is(err, ErrIndexUnavailable) || errors.Is(err, ErrSessionBusy) {
		return true
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode == 408 || se.StatusCode >= 500
	}

	var ne net.Error
	return errors.As(err, &ne)
}

// IsRetryable reports whether a persistence failure may succeed on a later attempt.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return IsTransient(err)
}
