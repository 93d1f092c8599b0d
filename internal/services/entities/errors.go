package entities

import "fmt"

// ParseError reports structured output from an extraction step that could not be read.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("entity parse error: %s: %v", e.Message, e.Cause)
	}
	return "entity parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Error markers stored in place of entities when extraction fails.
const (
	MarkerParseFailed   = "Failed to parse entities"
	MarkerNoEntities    = "No entities found"
	MarkerExtractFailed = "Failed to extract medical entities"
)
