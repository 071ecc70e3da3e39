// Package logger is the process wide structured logger.
package logger

import (
	"github.com/rs/zerolog"
	"io"
	"os"
	"time"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init switches to console output, at debug level when debug is set.
func Init(debug bool) {
	InitWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, debug)
}

// InitWriter is Init with a caller supplied sink, used by tests.
func InitWriter(w io.Writer, debug bool) {
	log = zerolog.New(w).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// Component returns a child logger tagged with the subsystem name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

// Fatal logs and exits the program once the event is sent.
func Fatal() *zerolog.Event {
	return log.Fatal()
}
