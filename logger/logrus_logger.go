// Package logger builds the Logrus loggers shared by the client, the forwarder and the examples.
package logger

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ConnectingApps/CustomCloudLogger/common"
)

// LogFormat is the environment variable selecting "json" or "text" output.
const LogFormat = "LOG_FORMAT"

// ConfigOption is a function type used to configure the logger.
type ConfigOption func(*log.Logger)

// NewLogrusLogger creates a new instance of logrus.Logger with the provided configuration options.
// Output goes to stderr so that function stdout stays free for responses.
func NewLogrusLogger(opts ...ConfigOption) *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	for _, fn := range opts {
		if nil != fn {
			fn(l)
		}
	}

	return l
}

// WithLogLevel sets the log level of the logger, falling back to info for unknown levels.
func WithLogLevel(level string) ConfigOption {
	return func(l *log.Logger) {
		parsedLevel, err := log.ParseLevel(level)
		if err != nil {
			l.Errorf("Invalid log level '%s'. Using default 'info' level.", level)
			parsedLevel = log.InfoLevel
		}
		l.SetLevel(parsedLevel)
	}
}

// WithDebugLevel sets the log level to debug if DEBUG_ENABLED is "true", otherwise to info.
// It also honours LOG_FORMAT.
func WithDebugLevel() ConfigOption {
	level := WithLogLevel("info")
	if os.Getenv(common.DebugEnabled) == "true" {
		level = WithLogLevel("debug")
	}
	format := WithFormat(os.Getenv(LogFormat))
	return func(l *log.Logger) {
		level(l)
		format(l)
	}
}

// WithFormat selects JSON output for "json"; anything else keeps the text formatter.
func WithFormat(format string) ConfigOption {
	return func(l *log.Logger) {
		if strings.EqualFold(format, "json") {
			l.SetFormatter(&log.JSONFormatter{})
			return
		}
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// WithOutput redirects the logger output.
func WithOutput(w io.Writer) ConfigOption {
	return func(l *log.Logger) {
		if w != nil {
			l.SetOutput(w)
		}
	}
}
