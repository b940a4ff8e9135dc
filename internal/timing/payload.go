package timing

import "github.com/gridironlab/playbook/pkg/core"

// Fixed dead time around every animation, in milliseconds
const (
	PreSnapDuration = 500.0
	PostRouteHold   = 500.0
)

// LoadPlayPayload is everything a playback session needs to load a play
type LoadPlayPayload struct {
	PlayID        string                      `json:"playId"`
	PlayerStates  []core.PlayerAnimationState `json:"playerStates"`
	RouteTimings  map[string]core.RouteTiming `json:"routeTimings"`
	TotalDuration float64                     `json:"totalDuration"`
}

// BuildLoadPlayPayload computes route timings for every player-linked drawing
// and the starting state of every player.
//
// When several drawings claim the same player the first one in drawing
// order is used.
func BuildLoadPlayPayload(play core.Play, speedFps float64) LoadPlayPayload {
	payload := LoadPlayPayload{
		PlayID:       play.ID,
		PlayerStates: make([]core.PlayerAnimationState, 0, len(play.Players)),
		RouteTimings: make(map[string]core.RouteTiming),
	}

	var longest float64
	for _, d := range play.Drawings {
		if d.PlayerID == nil {
			continue
		}
		rt := CalculateRouteTiming(d, speedFps)
		payload.RouteTimings[d.ID] = rt
		if rt.Duration > longest {
			longest = rt.Duration
		}
	}

	for _, p := range play.Players {
		payload.PlayerStates = append(payload.PlayerStates, initialState(p, play.Drawings))
	}

	payload.TotalDuration = longest + PreSnapDuration + PostRouteHold
	return payload
}

func initialState(p core.Player, drawings []core.Drawing) core.PlayerAnimationState {
	state := core.PlayerAnimationState{
		PlayerID:        p.ID,
		StartPosition:   p.Position(),
		CurrentPosition: p.Position(),
	}
	for _, d := range drawings {
		if !d.LinkedTo(p.ID) {
			continue
		}
		if start, ok := d.StartPoint(); ok {
			state.StartPosition = start
			state.CurrentPosition = start
		}
		state.RouteID = core.StringPtr(d.ID)
		break
	}
	return state
}
