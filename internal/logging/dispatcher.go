package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DispatcherLogger adapts zerolog.Logger to the small Logger interface shared
// by the command dispatcher and the frame driver.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger creates a new DispatcherLogger wrapping a zerolog.Logger.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

// Debug logs a debug message with optional key-value pairs.
func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	withFields(l.logger.Debug(), keysAndValues).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	withFields(l.logger.Info(), keysAndValues).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	withFields(l.logger.Error(), keysAndValues).Msg(msg)
}

// withFields adds key-value pairs to e. Error values go through Err so they
// render as strings; a dangling key is logged under !BADKEY.
func withFields(e *zerolog.Event, keysAndValues []any) *zerolog.Event {
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 >= len(keysAndValues) {
			e = e.Interface("!BADKEY", keysAndValues[i])
			break
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	return e
}
