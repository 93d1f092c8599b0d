package services

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ProductionLogger adapts a zerolog.Logger to the key/value Logger interface.
type ProductionLogger struct {
	zl zerolog.Logger
}

// NewProductionLogger creates a logger writing to w. Structured output emits JSON lines;
// otherwise a human-readable console writer is used.
func NewProductionLogger(service string, w io.Writer, level zerolog.Level, structured bool) *ProductionLogger {
	if !structured {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).Level(level).With().Timestamp().Str("service", service).Logger()
	return &ProductionLogger{zl: zl}
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
	p.emit(p.zl.Info(), msg, keysAndValues)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
	p.emit(p.zl.Error(), msg, keysAndValues)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
	p.emit(p.zl.Debug(), msg, keysAndValues)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
	p.emit(p.zl.Warn(), msg, keysAndValues)
}

func (p *ProductionLogger) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// NewLogger is the environment-based logger factory.
func NewLogger(service string) Logger {
	env := os.Getenv("GO_ENV")
	if env == "test" {
		return &NoOpLogger{}
	}
	return NewProductionLogger(service, os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")), env == "production")
}

// ParseLevel maps LOG_LEVEL values onto zerolog levels, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
