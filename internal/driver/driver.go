// Package driver advances a playback session in real time by turning frame
// timestamps into Tick actions.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gridironlab/playbook/internal/playback"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gridironlab/playbook/internal/driver"

// Target is the state holder a driver ticks. Advance calls step with the
// current state and applies the returned actions in the same critical
// section, so no other action can land between the read and the write.
type Target interface {
	Advance(step func(playback.AnimationState) []playback.Action) playback.AnimationState
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Option configures a Driver.
type Option func(*Driver)

// WithOnComplete sets a callback invoked once each time playback runs to
// the end without looping.
func WithOnComplete(fn func(playback.AnimationState)) Option {
	return func(d *Driver) {
		d.onComplete = fn
	}
}

// WithLogger sets the driver logger.
func WithLogger(l Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// Driver feeds wall time, scaled by the playback speed, into a Target
type Driver struct {
	target     Target
	source     FrameSource
	onComplete func(playback.AnimationState)
	logger     Logger

	mu      sync.Mutex
	last    time.Time
	hasLast bool
	visible bool

	frames      metric.Int64Counter
	completions metric.Int64Counter
	loops       metric.Int64Counter
}

// New creates a driver. Metrics use the global OTel meter (no-op if not
// configured).
func New(target Target, source FrameSource, opts ...Option) (*Driver, error) {
	d := &Driver{
		target:  target,
		source:  source,
		logger:  nopLogger{},
		visible: true,
	}
	for _, opt := range opts {
		opt(d)
	}

	m := otel.Meter(instrumentationName)

	var err error
	d.frames, err = m.Int64Counter(
		"driver.frames",
		metric.WithDescription("Frames that advanced playback"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	d.completions, err = m.Int64Counter(
		"driver.completions",
		metric.WithDescription("Playbacks that ran to the end"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completions counter: %w", err)
	}

	d.loops, err = m.Int64Counter(
		"driver.loops",
		metric.WithDescription("Playbacks restarted by loop mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loops counter: %w", err)
	}

	return d, nil
}

// Run consumes frames until ctx is cancelled or the source is exhausted.
// The source is stopped on return.
func (d *Driver) Run(ctx context.Context) error {
	defer d.source.Stop()
	frames := d.source.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-frames:
			if !ok {
				return nil
			}
			d.Step(ctx, ts)
		}
	}
}

// Step handles one frame at timestamp ts
func (d *Driver) Step(ctx context.Context, ts time.Time) {
	completed, ok := d.advance(ctx, ts)
	if ok && d.onComplete != nil {
		d.onComplete(completed)
	}
}

// advance ticks the target and reports whether playback just completed
func (d *Driver) advance(ctx context.Context, ts time.Time) (playback.AnimationState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		ticked, looped, completed bool
		playID                    string
		total                     float64
	)
	next := d.target.Advance(func(state playback.AnimationState) []playback.Action {
		if !state.Running() || !d.visible {
			d.hasLast = false
			return nil
		}
		if !d.hasLast {
			d.last = ts
			d.hasLast = true
			return nil
		}

		delta := float64(ts.Sub(d.last)) / float64(time.Millisecond) * state.PlaybackSpeed
		d.last = ts
		ticked = true
		tick := playback.Tick{DeltaTime: delta}
		if state.CurrentTime+delta < state.TotalDuration {
			return []playback.Action{tick}
		}

		playID, total = state.PlayID, state.TotalDuration
		if state.LoopMode {
			looped = true
			return []playback.Action{tick, playback.Reset{}, playback.Play{}}
		}
		completed = true
		return []playback.Action{tick}
	})

	if ticked {
		d.frames.Add(ctx, 1)
	}
	playAttr := metric.WithAttributes(attribute.String("play", playID))
	switch {
	case looped:
		d.loops.Add(ctx, 1, playAttr)
		d.logger.Debug("playback looped", "play", playID)
	case completed:
		d.hasLast = false
		d.completions.Add(ctx, 1, playAttr)
		d.logger.Info("playback complete", "play", playID, "duration", total)
	}
	return next, completed
}

// SetVisible records whether the viewer is visible. Hiding a playing
// viewer pauses it; showing it again does not resume.
func (d *Driver) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.visible = visible
	if visible {
		return
	}
	d.hasLast = false
	d.target.Advance(func(state playback.AnimationState) []playback.Action {
		if !state.IsPlaying {
			return nil
		}
		d.logger.Debug("paused hidden viewer")
		return []playback.Action{playback.Pause{}}
	})
}
