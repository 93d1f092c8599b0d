package extract

import "fmt"

type ErrorType string

const (
	ErrTypeUnsupported ErrorType = "UNSUPPORTED"
	ErrTypeRead        ErrorType = "READ"
	ErrTypeEncoding    ErrorType = "ENCODING"
	ErrTypeService     ErrorType = "SERVICE"
	ErrTypeEmpty       ErrorType = "EMPTY"
)

// ExtractionError reports that no text could be obtained from a file. Retrying with
// the same input will not help.
type ExtractionError struct {
	Type     ErrorType
	FileName string
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction %s error for %q: %s (caused by: %v)", e.Type, e.FileName, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction %s error for %q: %s", e.Type, e.FileName, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func NewUnsupportedError(fileName, contentType string) *ExtractionError {
	return &ExtractionError{Type: ErrTypeUnsupported, FileName: fileName, Message: "unsupported content type " + contentType}
}

func NewReadError(fileName string, cause error) *ExtractionError {
	return &ExtractionError{Type: ErrTypeRead, FileName: fileName, Message: "failed to read file", Cause: cause}
}

func NewServiceError(fileName, msg string, cause error) *ExtractionError {
	return &ExtractionError{Type: ErrTypeService, FileName: fileName, Message: msg, Cause: cause}
}

func NewEmptyError(fileName string) *ExtractionError {
	return &ExtractionError{Type: ErrTypeEmpty, FileName: fileName, Message: "no text found"}
}
