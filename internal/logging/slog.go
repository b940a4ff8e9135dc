package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName is the instrumentation scope of the OTel log bridge
const ServiceName = "playbook"

// stdout and pipe hooks, swapped by tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel and Graylog output.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// Option configures extra outputs for Setup
type Option func(*setupOptions)

type setupOptions struct {
	gelf    io.Writer
	context ContextProvider
}

// WithGELF adds a handler writing every record to a GELF writer.
func WithGELF(w io.Writer) Option {
	return func(o *setupOptions) {
		o.gelf = w
	}
}

// WithContext attaches the attributes returned by provider to every record.
func WithContext(provider ContextProvider) Option {
	return func(o *setupOptions) {
		o.context = provider
	}
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to file when given,
// otherwise to stdout. If provider is nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	lvl := parseLevel(level)
	m.logProvider = provider

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if o.gelf != nil {
		handlers = append(handlers, NewGELFHandler(o.gelf, lvl))
	}

	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
	}

	m.logger = slog.New(NewContextHandler(NewMultiHandler(handlers...), o.context))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// ForSession returns a logger tagging every record with a viewer session.
func (m *SlogManager) ForSession(sessionID string) *slog.Logger {
	return m.Logger().With("session", sessionID)
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
