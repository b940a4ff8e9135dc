package driver

import (
	"sync"
	"time"
)

// FrameSource delivers frame timestamps to a Driver
type FrameSource interface {
	Frames() <-chan time.Time
	Stop()
}

// TickerSource emits frames from a time.Ticker at a fixed rate
type TickerSource struct {
	ticker *time.Ticker
}

// NewTickerSource creates a source emitting frameRate frames per second.
// Non-positive rates default to 60.
func NewTickerSource(frameRate int) *TickerSource {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &TickerSource{ticker: time.NewTicker(time.Second / time.Duration(frameRate))}
}

func (s *TickerSource) Frames() <-chan time.Time {
	return s.ticker.C
}

func (s *TickerSource) Stop() {
	s.ticker.Stop()
}

// ManualSource is a controllable frame source for tests and headless
// rendering. Emit blocks until the driver has taken the frame.
type ManualSource struct {
	mu      sync.Mutex
	current time.Time
	ch      chan time.Time
	once    sync.Once
}

// NewManualSource creates a manual source starting at start
func NewManualSource(start time.Time) *ManualSource {
	return &ManualSource{current: start, ch: make(chan time.Time)}
}

func (s *ManualSource) Frames() <-chan time.Time {
	return s.ch
}

// Now returns the timestamp of the most recent frame
func (s *ManualSource) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Advance moves the clock forward by d and emits a frame
func (s *ManualSource) Advance(d time.Duration) {
	s.mu.Lock()
	s.current = s.current.Add(d)
	ts := s.current
	s.mu.Unlock()
	s.ch <- ts
}

func (s *ManualSource) Stop() {
	s.once.Do(func() { close(s.ch) })
}
