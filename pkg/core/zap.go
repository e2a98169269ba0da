package core

import "go.uber.org/zap"

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

// NewProductionZapLogger creates a ZapLogger backed by zap's production config.
func NewProductionZapLogger() (*ZapLogger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an info message.
func (l *ZapLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message.
func (l *ZapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
