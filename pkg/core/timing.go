// pkg/core/timing.go
package core

// SegmentTiming is one segment of a route with its time window.
// Times are milliseconds from the start of the route, lengths are feet.
type SegmentTiming struct {
	Type      SegmentType  `json:"type"`
	Length    float64      `json:"length"`
	StartTime float64      `json:"startTime"`
	EndTime   float64      `json:"endTime"`
	Points    []Coordinate `json:"points"`
}

// Duration returns the time spent on the segment
func (s SegmentTiming) Duration() float64 {
	return s.EndTime - s.StartTime
}

// RouteTiming is the time-stamped decomposition of a drawing
type RouteTiming struct {
	DrawingID   string          `json:"drawingId"`
	PlayerID    *string         `json:"playerId"`
	TotalLength float64         `json:"totalLength"`
	Duration    float64         `json:"duration"`
	Segments    []SegmentTiming `json:"segments"`
}

// PlayerAnimationState is a player's position at the current playback time
type PlayerAnimationState struct {
	PlayerID        string     `json:"playerId"`
	CurrentPosition Coordinate `json:"currentPosition"`
	StartPosition   Coordinate `json:"startPosition"`
	Progress        float64    `json:"progress"`
	RouteID         *string    `json:"routeId"`
}

// Clone returns a deep copy of the route timing
func (r RouteTiming) Clone() RouteTiming {
	out := r
	if r.PlayerID != nil {
		out.PlayerID = StringPtr(*r.PlayerID)
	}
	if r.Segments != nil {
		out.Segments = make([]SegmentTiming, len(r.Segments))
		for i, s := range r.Segments {
			if s.Points != nil {
				s.Points = append(make([]Coordinate, 0, len(s.Points)), s.Points...)
			}
			out.Segments[i] = s
		}
	}
	return out
}

// Clone returns a deep copy of the player state
func (p PlayerAnimationState) Clone() PlayerAnimationState {
	out := p
	if p.RouteID != nil {
		out.RouteID = StringPtr(*p.RouteID)
	}
	return out
}
