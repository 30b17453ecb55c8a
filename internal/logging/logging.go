package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger used by every trunkline package
var Logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Initialize configures level, format and output of Logger.
// format is "text" or "json"; out defaults to stderr.
func Initialize(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if out == nil {
		out = os.Stderr
	}

	Logger.SetOutput(out)
	Logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	return nil
}

// Discard silences Logger. Used by tests and --quiet.
func Discard() {
	Logger.SetOutput(io.Discard)
}
