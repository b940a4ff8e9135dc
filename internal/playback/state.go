// Package playback implements the animation state machine: a pure reducer
// over AnimationState and the position math it relies on.
package playback

import (
	"github.com/gridironlab/playbook/pkg/core"
)

// Phase is the playback lifecycle stage
type Phase string

const (
	PhaseReady     Phase = "ready"
	PhaseSnapCount Phase = "snapCount"
	PhaseExecution Phase = "execution"
	PhaseComplete  Phase = "complete"
)

// ValidSpeeds are the playback speed presets offered to viewers
var ValidSpeeds = []float64{0.25, 0.5, 1, 1.5, 2}

// IsValidSpeed reports whether speed is one of ValidSpeeds
func IsValidSpeed(speed float64) bool {
	for _, s := range ValidSpeeds {
		if s == speed {
			return true
		}
	}
	return false
}

// AnimationState is the complete playback state of one viewer.
// Reduce never mutates the slices or maps of a state it is given.
type AnimationState struct {
	Phase          Phase                       `json:"phase"`
	IsPlaying      bool                        `json:"isPlaying"`
	CurrentTime    float64                     `json:"currentTime"`
	TotalDuration  float64                     `json:"totalDuration"`
	PlaybackSpeed  float64                     `json:"playbackSpeed"`
	PlayID         string                      `json:"playId"`
	PlayerStates   []core.PlayerAnimationState `json:"playerStates"`
	ShowGhostTrail bool                        `json:"showGhostTrail"`
	LoopMode       bool                        `json:"loopMode"`
	RouteTimings   map[string]core.RouteTiming `json:"routeTimings"`
}

// NewState returns an empty ready state at normal speed
func NewState() AnimationState {
	return AnimationState{
		Phase:         PhaseReady,
		PlaybackSpeed: 1,
		PlayerStates:  []core.PlayerAnimationState{},
		RouteTimings:  map[string]core.RouteTiming{},
	}
}

// Running reports whether the state permits automatic time advancement
func (s AnimationState) Running() bool {
	return s.IsPlaying && s.Phase == PhaseExecution
}

// Progress returns the playback position as a fraction of the total duration
func (s AnimationState) Progress() float64 {
	return ratio(s.CurrentTime, s.TotalDuration)
}

// Clone returns a deep copy of the state
func (s AnimationState) Clone() AnimationState {
	out := s
	out.PlayerStates = clonePlayerStates(s.PlayerStates)
	out.RouteTimings = make(map[string]core.RouteTiming, len(s.RouteTimings))
	for k, v := range s.RouteTimings {
		out.RouteTimings[k] = v.Clone()
	}
	return out
}

func clonePlayerStates(in []core.PlayerAnimationState) []core.PlayerAnimationState {
	out := make([]core.PlayerAnimationState, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// ratio returns a/b clamped to [0,1], or 0 when b is not positive
func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	r := a / b
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
