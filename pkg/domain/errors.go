package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing Gemini API key: send apiKey in the request or set GEMINI_API_KEY on the server")
	ErrEmptyResponse     = errors.New("provider response has no candidates")
	ErrNotFound          = errors.New("not found")
)

// ProviderError carries the status and message the model provider returned
// with a non-success response.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Message)
}

// PersistenceError marks a thread-store failure so callers can fall back
// (local thread id, cleared view) instead of crashing.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
