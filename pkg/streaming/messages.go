// Package streaming defines the messages exchanged with renderer processes
// over a websocket.
package streaming

import (
	"encoding/json"

	"github.com/gridironlab/playbook/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeLoadPlay     = "load_play"
	TypeFrame        = "frame"
	TypeComplete     = "complete"
	TypeCloseSession = "close_session"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the renderer's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// LoadPlayPayload tells the renderer which routes to draw. Route segment
// points are already smoothed, so renderers draw them as given.
type LoadPlayPayload struct {
	PlayID        string                      `json:"playId"`
	TotalDuration float64                     `json:"totalDuration"`
	Routes        map[string]core.RouteTiming `json:"routes"`
	Players       []core.PlayerAnimationState `json:"players"`
}

// RouteReveal is the drawn portion of a route's stroke.
type RouteReveal struct {
	DrawingID      string  `json:"drawingId"`
	TotalLength    float64 `json:"totalLength"`
	RevealedLength float64 `json:"revealedLength"`
	Progress       float64 `json:"progress"`

	// End is where the route's line ending sits, with the arrival heading
	// in radians; nil when no segment can place one
	End     *core.Coordinate `json:"end,omitempty"`
	Heading float64          `json:"heading"`
}

// FramePayload is one rendered state of a session.
type FramePayload struct {
	PlayID         string                      `json:"playId"`
	Phase          string                      `json:"phase"`
	IsPlaying      bool                        `json:"isPlaying"`
	CurrentTime    float64                     `json:"currentTime"`
	TotalDuration  float64                     `json:"totalDuration"`
	Progress       float64                     `json:"progress"`
	PlaybackSpeed  float64                     `json:"playbackSpeed"`
	ShowGhostTrail bool                        `json:"showGhostTrail"`
	LoopMode       bool                        `json:"loopMode"`
	Players        []core.PlayerAnimationState `json:"players"`
	Routes         []RouteReveal               `json:"routes"`
}

// CompletePayload marks the end of a play's animation.
type CompletePayload struct {
	PlayID   string `json:"playId"`
	LoopMode bool   `json:"loopMode"`
}
