package internal

import (
	"io"

	"github.com/sirupsen/logrus"
)

// The library logs through its own logger so that applications embedding it
// keep full control over logrus.StandardLogger().
var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Field names used across the library for structured log entries.
const (
	FieldResource  = "resource"
	FieldOperation = "operation"
	FieldKey       = "key"
	FieldStatus    = "status"
	FieldOpID      = "op_id"
)

// EnableDebugLogging sets the logger level to Debug.
func EnableDebugLogging() {
	logger.SetLevel(logrus.DebugLevel)
}

// DisableDebugLogging silences everything below Panic.
func DisableDebugLogging() {
	logger.SetLevel(logrus.PanicLevel)
}

// SetLevel sets the library logger level.
func SetLevel(level logrus.Level) {
	logger.SetLevel(level)
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetFormatter sets the log formatter.
func SetFormatter(f logrus.Formatter) {
	logger.SetFormatter(f)
}

// Logger exposes the underlying logger, e.g. for adding hooks.
func Logger() *logrus.Logger {
	return logger
}

// Log logs a debug-level message.
func Log(v ...any) {
	logger.Debug(v...)
}

// Logf logs a formatted debug-level message.
func Logf(format string, v ...any) {
	logger.Debugf(format, v...)
}

// Infof logs a formatted info-level message.
func Infof(format string, v ...any) {
	logger.Infof(format, v...)
}

// Warnf logs a formatted warn-level message.
func Warnf(format string, v ...any) {
	logger.Warnf(format, v...)
}

// Errorf logs a formatted error-level message.
func Errorf(format string, v ...any) {
	logger.Errorf(format, v...)
}

// WithError attaches an error to the entry.
func WithError(err error) *logrus.Entry {
	return logger.WithError(err)
}

// WithField attaches a single field to the entry.
func WithField(key string, value any) *logrus.Entry {
	return logger.WithField(key, value)
}

// WithFields attaches multiple fields to the entry.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

// WithResource returns an entry carrying the resource and operation fields.
func WithResource(resource, operation string) *logrus.Entry {
	return logger.WithFields(
		logrus.Fields{
			FieldResource:  resource,
			FieldOperation: operation,
		},
	)
}

// Fields is re-exported so callers don't need to import logrus.
type Fields = logrus.Fields
