// Package logger wraps zerolog with the fields every log line of the
// service carries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates a logger writing to stdout. Development gets a human readable
// console at debug level; other environments get JSON at info level.
func New(serviceName string, environment string) *Logger {
	if environment == "development" {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return newLogger(serviceName, console, zerolog.DebugLevel)
	}
	return newLogger(serviceName, os.Stdout, zerolog.InfoLevel)
}

// NewWithWriter creates a debug level JSON logger writing to w
func NewWithWriter(serviceName string, w io.Writer) *Logger {
	return newLogger(serviceName, w, zerolog.DebugLevel)
}

func newLogger(serviceName string, w io.Writer, level zerolog.Level) *Logger {
	return &Logger{
		Logger: zerolog.New(w).
			Level(level).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger(),
	}
}

// Nop returns a logger that drops everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithSessionID returns a logger with the session ID attached
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return l.with("session_id", sessionID)
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}
