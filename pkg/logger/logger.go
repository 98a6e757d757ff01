package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config log level to a zerolog level (defaults to info)
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to w in the given format
func New(w io.Writer, format string) zerolog.Logger {
	if format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	// JSON format (default)
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init initializes the global logger with the specified level and format.
// Logs go to stderr so command output on stdout stays clean.
func Init(level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = New(os.Stderr, format)
}

// Get returns a reference to the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
