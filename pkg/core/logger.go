package core

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is the interface for logging in the SDK.
// Implement this interface to use a custom logger (e.g. logrus, zap).
type Logger interface {
	// Debug logs a debug message
	Debug(format string, args ...interface{})

	// Info logs an info message
	Info(format string, args ...interface{})

	// Warn logs a warning message
	Warn(format string, args ...interface{})

	// Error logs an error message
	Error(format string, args ...interface{})
}

// LogLevel represents the logging level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelSilent
)

// DefaultLogger is the default logger implementation using the standard library.
type DefaultLogger struct {
	level  LogLevel
	prefix string
	logger *log.Logger
}

// NewDefaultLogger creates a new default logger.
func NewDefaultLogger(prefix string, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		prefix: prefix,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetOutput sets the output writer.
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// SetLevel sets the log level.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	if l.level <= LogLevelDebug {
		l.log("DEBUG", format, args...)
	}
}

// Info logs an info message.
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	if l.level <= LogLevelInfo {
		l.log("INFO", format, args...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	if l.level <= LogLevelWarn {
		l.log("WARN", format, args...)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	if l.level <= LogLevelError {
		l.log("ERROR", format, args...)
	}
}

func (l *DefaultLogger) log(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		l.logger.Printf("[%s] [%s] %s", l.prefix, level, msg)
	} else {
		l.logger.Printf("[%s] %s", level, msg)
	}
}

// NopLogger is a no-op logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a new no-op logger.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (l *NopLogger) Debug(format string, args ...interface{}) {}

// Info discards the message.
func (l *NopLogger) Info(format string, args ...interface{}) {}

// Warn discards the message.
func (l *NopLogger) Warn(format string, args ...interface{}) {}

// Error discards the message.
func (l *NopLogger) Error(format string, args ...interface{}) {}
