package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// parseZerologLevel converts a string log level to a zerolog.Level.
func parseZerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
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

// NewZerolog builds the console-format zerolog logger used by the database,
// dispatcher and telemetry layers. Timestamps are UTC.
func NewZerolog(w io.Writer, level string, component string) zerolog.Logger {
	if w == nil {
		w = osStdout
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    w != osStdout,
	}
	return zerolog.New(out).
		Level(parseZerologLevel(level)).
		With().Timestamp().Str("component", component).
		Logger()
}
