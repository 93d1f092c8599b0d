// File: internal/services/ai/errors.go
package ai

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AIError struct {
	Type      ErrorType
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

func (e *AIError) errorType() ErrorType { return e.Type }

// EmbeddingError is returned when a text cannot be embedded. It is possibly transient.
type EmbeddingError struct {
	AIError
}

// SynthesisError is returned when answer synthesis fails. It is possibly transient.
type SynthesisError struct {
	AIError
}

func NewConfigError(msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, msg string, cause error) *AIError {
	return &AIError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewEmbeddingError(errType ErrorType, model, msg string, cause error) *EmbeddingError {
	return &EmbeddingError{AIError{Type: errType, Operation: "embedding", Model: model, Message: msg, Cause: cause}}
}

func NewSynthesisError(errType ErrorType, model, msg string, cause error) *SynthesisError {
	return &SynthesisError{AIError{Type: errType, Operation: "completion", Model: model, Message: msg, Cause: cause}}
}

// IsConfigError reports whether err comes from missing or invalid provider settings.
func IsConfigError(err error) bool {
	var typed interface{ errorType() ErrorType }
	return errors.As(err, &typed) && typed.errorType() == ErrTypeConfig
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	var typed interface{ errorType() ErrorType }
	if errors.As(err, &typed) {
		t := typed.errorType()
		return t != ErrTypeConfig && t != ErrTypeValidation
	}
	return true
}
