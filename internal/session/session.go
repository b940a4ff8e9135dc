// Package session holds the playback state of one viewer and publishes a
// frame to subscribers after every transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gridironlab/playbook/internal/cache"
	"github.com/gridironlab/playbook/internal/channel"
	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/internal/playback"
	"github.com/gridironlab/playbook/internal/timing"
	"github.com/gridironlab/playbook/pkg/core"
)

// ErrClosed is returned by operations on a closed session
var ErrClosed = errors.New("session closed")

// PlayLoader fetches play content by ID
type PlayLoader interface {
	GetPlay(ctx context.Context, id string) (*core.Play, error)
}

// Config configures a new session
type Config struct {
	ID       string
	SpeedFps float64
	Loader   PlayLoader
	Cache    *cache.PayloadCache
	Logger   *slog.Logger

	// viewer preferences applied to the initial state
	PlaybackSpeed float64
	LoopMode      bool
}

// Session owns the AnimationState of one viewer
type Session struct {
	id       string
	speedFps float64
	loader   PlayLoader
	cache    *cache.PayloadCache
	logger   *slog.Logger

	mu          sync.Mutex
	state       playback.AnimationState
	subscribers []channel.Channel[playback.Frame]
	dropped     int
	closed      bool
	playlist    []string
	index       int
}

// New creates a session with an empty ready state
func New(cfg Config) *Session {
	if cfg.SpeedFps <= 0 {
		cfg.SpeedFps = timing.DefaultSpeedFps
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewPayloadCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	state := playback.NewState()
	if playback.IsValidSpeed(cfg.PlaybackSpeed) {
		state.PlaybackSpeed = cfg.PlaybackSpeed
	}
	state.LoopMode = cfg.LoopMode

	return &Session{
		id:       cfg.ID,
		speedFps: cfg.SpeedFps,
		loader:   cfg.Loader,
		cache:    cfg.Cache,
		logger:   cfg.Logger.With("session", cfg.ID),
		state:    state,
		index:    -1,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns a copy of the current state
func (s *Session) State() playback.AnimationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies action and publishes the resulting frame.
// A closed session ignores actions.
func (s *Session) Dispatch(action playback.Action) playback.AnimationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.Clone()
	}
	s.state = playback.Reduce(s.state, action)
	s.publish(playback.SnapshotFrame(s.state))
	return s.state.Clone()
}

// Advance calls step with the current state and applies the actions it
// returns before releasing the lock, publishing a frame per action. A
// closed session does not call step.
func (s *Session) Advance(step func(playback.AnimationState) []playback.Action) playback.AnimationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.Clone()
	}
	for _, a := range step(s.state.Clone()) {
		s.state = playback.Reduce(s.state, a)
		s.publish(playback.SnapshotFrame(s.state))
	}
	return s.state.Clone()
}

// publish fans f out without blocking; subscribers that are behind miss it.
// Must be called with s.mu held.
func (s *Session) publish(f playback.Frame) {
	for _, sub := range s.subscribers {
		if !sub.TrySend(f) {
			s.dropped++
		}
	}
}

// Subscribe registers a frame subscriber buffering up to buffer frames.
// The channel is closed when the session closes.
func (s *Session) Subscribe(buffer int) (channel.Receiver[playback.Frame], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	ch := channel.New[playback.Frame](buffer)
	s.subscribers = append(s.subscribers, ch)
	return ch, nil
}

// Dropped returns how many frames subscribers have missed
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// SetPlaylist sets the ordered play IDs used by Next and Prev
func (s *Session) SetPlaylist(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = append([]string(nil), ids...)
	s.index = indexOf(s.playlist, s.state.PlayID)
}

// Load fetches a play, computes its payload and loads it
func (s *Session) Load(ctx context.Context, playID string) error {
	payload, err := s.payload(ctx, playID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.index = indexOf(s.playlist, playID)
	}
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	s.Dispatch(playback.LoadPlay{Payload: payload})
	s.logger.Info("play loaded", "play", playID, "duration", payload.TotalDuration, "routes", len(payload.RouteTimings))
	return nil
}

// LoadPayload loads an already computed payload
func (s *Session) LoadPayload(payload timing.LoadPlayPayload) {
	s.mu.Lock()
	s.index = indexOf(s.playlist, payload.PlayID)
	s.mu.Unlock()
	s.Dispatch(playback.LoadPlay{Payload: payload})
}

// Next loads the following play of the playlist. It reports false at the
// end of the list.
func (s *Session) Next(ctx context.Context) (bool, error) {
	return s.step(ctx, 1)
}

// Prev loads the preceding play of the playlist. It reports false at the
// start of the list.
func (s *Session) Prev(ctx context.Context) (bool, error) {
	return s.step(ctx, -1)
}

func (s *Session) step(ctx context.Context, dir int) (bool, error) {
	s.mu.Lock()
	target := s.index + dir
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.index < 0 || target < 0 || target >= len(s.playlist) {
		s.mu.Unlock()
		return false, nil
	}
	playID := s.playlist[target]
	s.mu.Unlock()

	if err := s.Load(ctx, playID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) payload(ctx context.Context, playID string) (timing.LoadPlayPayload, error) {
	if p, ok := s.cache.Get(playID, s.speedFps); ok {
		return p, nil
	}
	if s.loader == nil {
		return timing.LoadPlayPayload{}, fmt.Errorf("no play loader configured")
	}

	play, err := s.loader.GetPlay(ctx, playID)
	if err != nil {
		return timing.LoadPlayPayload{}, fmt.Errorf("loading play %s: %w", playID, err)
	}
	p := timing.BuildLoadPlayPayload(*play, s.speedFps)
	s.checkLengths(p)
	s.cache.Set(s.speedFps, p)
	return p, nil
}

// lengthTolerance is the largest drift in feet accepted between a route's
// timed length and the length of the polyline it travels
const lengthTolerance = 1e-6

// checkLengths measures every all-line route a second way and warns when
// the two lengths disagree
func (s *Session) checkLengths(p timing.LoadPlayPayload) {
	for id, rt := range p.RouteTimings {
		path, ok := geo.LinePath(rt)
		if !ok {
			continue
		}
		if measured := geo.PolylineLength(path); math.Abs(measured-rt.TotalLength) > lengthTolerance {
			s.logger.Warn("route length mismatch",
				"play", p.PlayID, "drawing", id,
				"timed", rt.TotalLength, "polyline", measured)
		}
	}
}

// Close stops publishing and closes all subscriber channels
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subscribers {
		sub.Close()
	}
	s.subscribers = nil
	s.logger.Debug("session closed", "dropped_frames", s.dropped)
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
