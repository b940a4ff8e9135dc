package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFWriter connects a UDP GELF writer to a Graylog input
func NewGELFWriter(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create GELF writer for %s: %w", address, err)
	}
	w.Facility = ServiceName
	return w, nil
}

// NewGELFHandler returns a handler writing one JSON line per record to w.
// Each line becomes the short message of one GELF message.
func NewGELFHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
