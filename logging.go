package viewsync

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hrdesk/viewsync/internal"
)

// EnableDebugLogging enables debug logging
func EnableDebugLogging() {
	internal.EnableDebugLogging()
}

// DisableDebugLogging disables logging below the panic level
func DisableDebugLogging() {
	internal.DisableDebugLogging()
}

// SetLogLevel sets the log level for the library's logger independently
// from any application loggers.
func SetLogLevel(level logrus.Level) {
	internal.SetLevel(level)
}

// SetLogOutput sets the output writer for the library's logger.
func SetLogOutput(w io.Writer) {
	internal.SetOutput(w)
}

// SetLogFormatter sets the formatter for the library's logger.
func SetLogFormatter(f logrus.Formatter) {
	internal.SetFormatter(f)
}

// SetLogLevelName parses a logrus level name ("debug", "info", ...) and sets
// it; an empty name leaves the level unchanged.
func SetLogLevelName(name string) error {
	if name == "" {
		return nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	internal.SetLevel(level)
	return nil
}
