package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed client request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDocumentNotFound signals a document the backend cannot return.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorNotRecoverable signals that no extraction strategy matched a stored record.
	ErrVectorNotRecoverable = errors.New("could not extract vector from document")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrBackend signals a valid HTTP error response from the vector-index backend.
	ErrBackend = errors.New("backend error")
	// ErrBackendUnavailable signals that the backend could not be reached or the session is offline.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrDecode signals a malformed wire payload.
	ErrDecode = errors.New("decode error")
	// ErrEmptyBatch signals an insert without any vectors.
	ErrEmptyBatch = errors.New("empty vector batch")
	// ErrDimensionMismatch signals a vector whose length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// FieldError wraps ErrInvalidRequest with the offending request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidRequest }

// NewMissingField creates an invalid request error for a required field.
func NewMissingField(field string) error {
	return &FieldError{Field: field, Reason: "is required"}
}
