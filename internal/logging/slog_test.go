package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetup_FileOnly_NoStdout(t *testing.T) {
	// Capture stdout to verify nothing is written there
	origStdout := captureStdout(t)

	var fileBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&fileBuf, "info", nil)
	m.Logger().Info("hello file")

	stdout := origStdout()

	assert.Contains(t, fileBuf.String(), "hello file", "log should appear in file")
	// The "Logging initialized" message from Setup also goes to file, not stdout
	assert.Empty(t, stdout, "nothing should be written to stdout when file is provided")
}

func TestSetup_NoFile_WritesToStdout(t *testing.T) {
	origStdout := captureStdout(t)

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("hello console")

	stdout := origStdout()

	assert.Contains(t, stdout, "hello console", "log should appear on stdout")
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)

			m.Logger().Debug("frame published")
			m.Logger().Warn("renderer slow")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "frame published"))
			assert.Equal(t, tt.wantWarn, strings.Contains(buf.String(), "renderer slow"))
		})
	}
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(&buf1, "info", nil)
	m.Logger().Info("first")

	m.Setup(&buf2, "info", nil)
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	logger := m.Logger()
	assert.Equal(t, slog.Default(), logger)
}

func TestFlush_NilProvider(t *testing.T) {
	m := NewSlogManager()
	err := m.Flush(context.Background())
	assert.NoError(t, err)
}

func TestSetup_WithGELF(t *testing.T) {
	var file, gelf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil, WithGELF(&gelf))

	m.Logger().Info("play loaded", "play", "dig")

	assert.Contains(t, file.String(), "play loaded")
	assert.Contains(t, gelf.String(), `"msg":"play loaded"`)
	assert.Contains(t, gelf.String(), `"play":"dig"`)
}

func TestSetup_WithContext(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil, WithContext(func() []slog.Attr {
		return []slog.Attr{slog.Int("sessions", 3)}
	}))

	m.Logger().Info("tick")
	assert.Contains(t, buf.String(), "sessions=3")
}

func TestForSession(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)

	m.ForSession("viewer-1").Info("seek")
	assert.Contains(t, buf.String(), "session=viewer-1")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		calls++
		return []slog.Attr{slog.String("phase", "execution")}
	})

	logger := slog.New(h).With("play", "dig").WithGroup("g")
	logger.Info("frame", "n", 1)

	assert.Equal(t, 1, calls)
	assert.Contains(t, buf.String(), "play=dig")
	assert.Contains(t, buf.String(), "g.phase=execution")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var file, gelf bytes.Buffer
	multi := NewMultiHandler(
		nil,
		slog.NewTextHandler(&file, nil),
		NewGELFHandler(&gelf, slog.LevelInfo),
		nil,
	)
	require.Equal(t, 2, multi.Len())

	slog.New(multi).Info("session opened", "session", "v1")

	assert.Contains(t, file.String(), "session=v1")
	assert.Contains(t, gelf.String(), `"session":"v1"`)
}

func TestMultiHandler_Enabled(t *testing.T) {
	info := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	ctx := context.Background()

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info).Enabled(ctx, slog.LevelInfo))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug), "any sink enables a level")
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	tests := []struct {
		name  string
		apply func(slog.Handler) slog.Handler
		want  string
	}{
		{
			name:  "attrs",
			apply: func(h slog.Handler) slog.Handler { return h.WithAttrs([]slog.Attr{slog.String("component", "driver")}) },
			want:  "component=driver",
		},
		{
			name:  "group",
			apply: func(h slog.Handler) slog.Handler { return h.WithGroup("frame") },
			want:  "frame.progress=0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a, b bytes.Buffer
			multi := NewMultiHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))

			slog.New(tt.apply(multi)).Info("tick", "progress", 0.5)

			assert.Contains(t, a.String(), tt.want)
			assert.Contains(t, b.String(), tt.want)
		})
	}

	multi := NewMultiHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, multi, multi.WithGroup(""))
}

func TestFlush_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider() // no exporter, just validates non-nil path
	m := NewSlogManager()

	var buf bytes.Buffer
	m.Setup(&buf, "info", provider)

	err := m.Flush(context.Background())
	assert.NoError(t, err)
}

// errorHandler is a slog.Handler that always returns an error from Handle.
type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(_ context.Context, _ slog.Record) error {
	return errors.New("handler error")
}

func (h *errorHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	// First handler errors, second (spy) should still receive the record.
	multi := NewMultiHandler(&errorHandler{}, spy)
	logger := slog.New(multi)
	logger.Info("should reach spy")

	assert.Contains(t, buf.String(), "should reach spy")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "direct", 0)
	err := multi.Handle(context.Background(), r)
	assert.EqualError(t, err, "handler error")
}

func TestMultiHandler_Len(t *testing.T) {
	h := slog.NewTextHandler(&bytes.Buffer{}, nil)
	assert.Equal(t, 2, NewMultiHandler(h, nil, h).Len())
}

func TestContextHandler_SessionFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil))

	logger.InfoContext(WithSessionID(context.Background(), "viewer-7"), "next play")
	assert.Contains(t, buf.String(), "session=viewer-7")

	buf.Reset()
	logger.InfoContext(context.Background(), "no session")
	assert.NotContains(t, buf.String(), "session=")
}

func TestSessionIDFrom(t *testing.T) {
	_, ok := SessionIDFrom(context.Background())
	assert.False(t, ok)

	_, ok = SessionIDFrom(WithSessionID(context.Background(), ""))
	assert.False(t, ok, "empty IDs are not reported")

	id, ok := SessionIDFrom(WithSessionID(context.Background(), "cli"))
	assert.True(t, ok)
	assert.Equal(t, "cli", id)
}

func TestSetup_WithOTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", provider)

	m.Logger().Info("otel integrated")
	assert.Contains(t, buf.String(), "otel integrated")
}

// captureStdout redirects os.Stdout to a pipe and returns a function
// that restores stdout and returns what was captured.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	origStdout := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = origStdout
		var buf bytes.Buffer
		buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}
