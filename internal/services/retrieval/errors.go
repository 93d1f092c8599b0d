package retrieval

import (
	"errors"
	"fmt"
)

// ErrNothingToAnswer means no document or chunk exists to answer from.
var ErrNothingToAnswer = errors.New("no document content to answer from")

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeTier       ErrorType = "TIER"
)

type RetrievalError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *RetrievalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Retrieval %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Retrieval %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *RetrievalError {
	return &RetrievalError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewTierError(operation, msg string, cause error) *RetrievalError {
	return &RetrievalError{Type: ErrTypeTier, Operation: operation, Message: msg, Cause: cause}
}
