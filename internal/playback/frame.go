package playback

import (
	"sort"

	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/pkg/core"
)

// RouteReveal is how much of a route's stroke a renderer should draw
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

// Frame is the read-only view of a state handed to renderers on every
// transition.
type Frame struct {
	PlayID         string                      `json:"playId"`
	Phase          Phase                       `json:"phase"`
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

// SnapshotFrame builds the frame for state. Routes are ordered by drawing ID.
func SnapshotFrame(state AnimationState) Frame {
	f := Frame{
		PlayID:         state.PlayID,
		Phase:          state.Phase,
		IsPlaying:      state.IsPlaying,
		CurrentTime:    state.CurrentTime,
		TotalDuration:  state.TotalDuration,
		Progress:       state.Progress(),
		PlaybackSpeed:  state.PlaybackSpeed,
		ShowGhostTrail: state.ShowGhostTrail,
		LoopMode:       state.LoopMode,
		Players:        clonePlayerStates(state.PlayerStates),
		Routes:         make([]RouteReveal, 0, len(state.RouteTimings)),
	}

	for id, rt := range state.RouteTimings {
		r := RouteReveal{
			DrawingID:      id,
			TotalLength:    rt.TotalLength,
			RevealedLength: TraveledLength(rt, state.CurrentTime),
			Progress:       RouteProgress(rt, state.CurrentTime),
		}
		if end, heading, ok := geo.RouteEnd(rt); ok {
			r.End = &end
			r.Heading = heading
		}
		f.Routes = append(f.Routes, r)
	}
	sort.Slice(f.Routes, func(i, j int) bool {
		return f.Routes[i].DrawingID < f.Routes[j].DrawingID
	})
	return f
}
