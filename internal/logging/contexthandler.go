package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes sampled at log time, such as the
// number of open sessions.
type ContextProvider func() []slog.Attr

type sessionKey struct{}

// WithSessionID returns a context whose log records carry the session ID
// when logged through a ContextHandler.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom returns the session ID stored by WithSessionID
func SessionIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// ContextHandler adds the session of the record's context and the
// provider's attributes to every record. A nil provider is allowed.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := SessionIDFrom(ctx); ok {
		r.AddAttrs(slog.String("session", id))
	}
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
