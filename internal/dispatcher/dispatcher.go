// Package dispatcher routes viewer control commands to their handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned for events dispatched after Close.
var ErrClosed = errors.New("dispatcher closed")

// Event is a control command addressed to a viewer session.
type Event struct {
	Session   string
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	failed    metric.Int64Counter

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	buffers  map[string]chan Event
	closed   bool
	workers  sync.WaitGroup

	// senders hold queueMu shared while enqueueing; Close holds it
	// exclusively while closing the queues
	queueMu      sync.RWMutex
	queuesClosed bool
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Event),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Commands waiting in a handler queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for cmd, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("command", cmd)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Commands handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.commands.dropped",
		metric.WithDescription("Commands dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.commands.failed",
		metric.WithDescription("Commands whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(command, h)

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(command, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands returns the registered command names in order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting events and waits for queued events to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	buffers := make([]chan Event, 0, len(d.buffers))
	for _, buf := range d.buffers {
		buffers = append(buffers, buf)
	}
	d.mu.Unlock()

	d.queueMu.Lock()
	d.queuesClosed = true
	for _, buf := range buffers {
		close(buf)
	}
	d.queueMu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) withMetrics(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		result, err := h(e)
		if err != nil {
			d.failed.Add(context.Background(), 1, cmdAttr)
		} else {
			d.processed.Add(context.Background(), 1, cmdAttr)
		}
		return result, err
	}
}

func (d *Dispatcher) withBuffer(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[command] = buffer
	d.mu.Unlock()

	cmdAttr := metric.WithAttributes(attribute.String("command", command))

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range buffer {
			if _, err := h(e); err != nil {
				d.logger.Error("queued command failed", "command", command, "session", e.Session, "error", err)
			}
		}
	}()

	return func(e Event) (any, error) {
		d.queueMu.RLock()
		defer d.queueMu.RUnlock()
		if d.queuesClosed {
			return nil, ErrClosed
		}

		if blocking {
			buffer <- e
			return "queued", nil
		}
		select {
		case buffer <- e:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, cmdAttr)
			return nil, fmt.Errorf("queue full: %s", command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "session", e.Session, "args", e.Args)

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "command", command, "session", e.Session, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "session", e.Session, "duration", time.Since(start))
		}

		return result, err
	}
}
