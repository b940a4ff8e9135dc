package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler fans records out to the console/file, GELF and OTel
// handlers. A failing handler does not stop the others; Handle reports
// all failures joined.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler skips nil handlers so optional sinks can be passed as-is
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	m := &MultiHandler{handlers: make([]slog.Handler, 0, len(handlers))}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Len returns the number of sinks
func (m *MultiHandler) Len() int {
	return len(m.handlers)
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) each(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := &MultiHandler{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		out.handlers[i] = fn(h)
	}
	return out
}
