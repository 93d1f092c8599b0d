package vectorstore

import "fmt"

// StoreError represents a vector store failure.
type StoreError struct {
	Type    string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vector store %s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("vector store %s error: %s", e.Type, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewConnectionError(message string, err error) *StoreError {
	return &StoreError{Type: "connection", Message: message, Err: err}
}

func NewOperationError(message string, err error) *StoreError {
	return &StoreError{Type: "operation", Message: message, Err: err}
}

func NewConfigError(message string) *StoreError {
	return &StoreError{Type: "config", Message: message}
}
