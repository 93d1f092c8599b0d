// File: internal/middleware/constants.go
package middleware

import "context"

// Context keys for middleware communication
type contextKey string

const (
	SubjectKey contextKey = "subject"
)

// Logger is the logging surface the middleware needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// SubjectFrom returns the authenticated token subject, or "" when auth is disabled.
func SubjectFrom(ctx context.Context) string {
	s, _ := ctx.Value(SubjectKey).(string)
	return s
}
