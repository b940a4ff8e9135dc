// Package streaming publishes session frames to a renderer over a websocket.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gridironlab/playbook/internal/channel"
	"github.com/gridironlab/playbook/internal/playback"
	"github.com/gridironlab/playbook/pkg/streaming"
)

// Config holds renderer endpoint configuration.
type Config struct {
	URL    string
	Secret string
	// WaitForAck blocks load_play until the renderer acknowledges it
	WaitForAck bool
}

// StateSource is the session a stream follows
type StateSource interface {
	ID() string
	State() playback.AnimationState
}

// Publisher streams frames to a renderer. Frames are fire-and-forget;
// load_play messages are replayed after a reconnect.
type Publisher struct {
	conn   *connection
	cfg    Config
	logger *slog.Logger
}

// New creates a publisher. Init connects it.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   newConnection(logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Init connects to the renderer.
func (p *Publisher) Init() error {
	return p.conn.dial(p.cfg.URL, p.cfg.Secret)
}

// Close disconnects from the renderer.
func (p *Publisher) Close() error {
	return p.conn.close()
}

// Dropped returns how many messages were dropped because the renderer fell behind
func (p *Publisher) Dropped() int {
	return p.conn.droppedCount()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType, session string, payload any) ([]byte, error) {
	env := streaming.Envelope{Type: msgType, Session: session}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (p *Publisher) sendEnvelope(msgType, session string, payload any) error {
	data, err := marshalEnvelope(msgType, session, payload)
	if err != nil {
		return err
	}
	p.conn.send(data)
	return nil
}

// LoadPlay announces the play loaded in state.
func (p *Publisher) LoadPlay(session string, state playback.AnimationState) error {
	data, err := marshalEnvelope(streaming.TypeLoadPlay, session, LoadPlayPayload(state))
	if err != nil {
		return err
	}
	p.conn.cacheLoad(session, data)

	if p.cfg.WaitForAck {
		return p.conn.sendAndWait(data, streaming.TypeLoadPlay, ackTimeout)
	}
	p.conn.send(data)
	return nil
}

// SendFrame sends one frame.
func (p *Publisher) SendFrame(session string, f playback.Frame) error {
	return p.sendEnvelope(streaming.TypeFrame, session, FramePayload(f))
}

// Complete signals that the animation of f's play finished.
func (p *Publisher) Complete(session string, f playback.Frame) error {
	return p.sendEnvelope(streaming.TypeComplete, session, streaming.CompletePayload{
		PlayID:   f.PlayID,
		LoopMode: f.LoopMode,
	})
}

// CloseSession tells the renderer the session ended.
func (p *Publisher) CloseSession(session string) error {
	p.conn.cacheLoad(session, nil)
	return p.sendEnvelope(streaming.TypeCloseSession, session, nil)
}

// Stream forwards frames of src until frames is closed or ctx is done. A
// load_play message precedes the first frame of every play, and a complete
// message follows the frame entering the complete phase.
func (p *Publisher) Stream(ctx context.Context, src StateSource, frames channel.Receiver[playback.Frame]) error {
	session := src.ID()
	var lastPlay string
	var lastPhase playback.Phase

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames.Receive():
			if !ok {
				return p.CloseSession(session)
			}

			if f.PlayID != lastPlay {
				st := src.State()
				if st.PlayID == f.PlayID {
					if err := p.LoadPlay(session, st); err != nil {
						p.logger.Warn("load_play not delivered", "session", session, "play", f.PlayID, "error", err)
					}
				}
				lastPlay = f.PlayID
				lastPhase = ""
			}

			if err := p.SendFrame(session, f); err != nil {
				return err
			}
			if f.Phase == playback.PhaseComplete && lastPhase != playback.PhaseComplete {
				if err := p.Complete(session, f); err != nil {
					return err
				}
			}
			lastPhase = f.Phase
		}
	}
}

// LoadPlayPayload converts a state into the load_play message body.
func LoadPlayPayload(state playback.AnimationState) streaming.LoadPlayPayload {
	return streaming.LoadPlayPayload{
		PlayID:        state.PlayID,
		TotalDuration: state.TotalDuration,
		Routes:        state.RouteTimings,
		Players:       state.PlayerStates,
	}
}

// FramePayload converts a frame into the frame message body.
func FramePayload(f playback.Frame) streaming.FramePayload {
	out := streaming.FramePayload{
		PlayID:         f.PlayID,
		Phase:          string(f.Phase),
		IsPlaying:      f.IsPlaying,
		CurrentTime:    f.CurrentTime,
		TotalDuration:  f.TotalDuration,
		Progress:       f.Progress,
		PlaybackSpeed:  f.PlaybackSpeed,
		ShowGhostTrail: f.ShowGhostTrail,
		LoopMode:       f.LoopMode,
		Players:        f.Players,
		Routes:         make([]streaming.RouteReveal, len(f.Routes)),
	}
	for i, r := range f.Routes {
		out.Routes[i] = streaming.RouteReveal(r)
	}
	return out
}
