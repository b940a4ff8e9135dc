package playback

import (
	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/pkg/core"
)

// segmentAt returns the index of the segment whose time window contains
// time, preferring segments with a non-zero duration. It returns -1 when
// no window contains time.
func segmentAt(segments []core.SegmentTiming, time float64) int {
	found := -1
	for i, seg := range segments {
		if time < seg.StartTime || time > seg.EndTime {
			continue
		}
		if seg.EndTime > seg.StartTime {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

// PositionAt evaluates a route at time milliseconds from its start.
// Times past the last segment clamp to the route's final point.
// It returns false for a route without segments.
func PositionAt(rt core.RouteTiming, time float64) (core.Coordinate, bool) {
	if len(rt.Segments) == 0 {
		return core.Coordinate{}, false
	}
	if time < 0 {
		time = 0
	}

	idx := segmentAt(rt.Segments, time)
	if idx < 0 {
		return lastPointThrough(rt.Segments, len(rt.Segments)-1)
	}

	seg := rt.Segments[idx]
	if len(seg.Points) == 0 {
		return lastPointThrough(rt.Segments, idx)
	}
	local := ratio(time-seg.StartTime, seg.Duration())
	p, _ := geo.SegmentPoint(seg, local)
	return p, true
}

// lastPointThrough returns the final point of the last segment at or before
// idx that carries any points
func lastPointThrough(segments []core.SegmentTiming, idx int) (core.Coordinate, bool) {
	for i := idx; i >= 0; i-- {
		if pts := segments[i].Points; len(pts) > 0 {
			return pts[len(pts)-1], true
		}
	}
	return core.Coordinate{}, false
}

// RouteProgress returns the fraction of the route completed at time
func RouteProgress(rt core.RouteTiming, time float64) float64 {
	return ratio(time, rt.Duration)
}

// TraveledLength returns how many feet of the route are behind the player
// at time. Renderers use it for progressive stroke reveal.
func TraveledLength(rt core.RouteTiming, time float64) float64 {
	var traveled float64
	for _, seg := range rt.Segments {
		switch {
		case time >= seg.EndTime:
			traveled += seg.Length
		case time > seg.StartTime:
			traveled += seg.Length * ratio(time-seg.StartTime, seg.Duration())
		}
	}
	return traveled
}

// RecomputePositions returns the player states positioned at time. Players
// without a timed route stay at their start position.
func RecomputePositions(states []core.PlayerAnimationState, timings map[string]core.RouteTiming, time float64) []core.PlayerAnimationState {
	out := make([]core.PlayerAnimationState, len(states))
	for i, ps := range states {
		out[i] = positionPlayer(ps, timings, time)
	}
	return out
}

func positionPlayer(ps core.PlayerAnimationState, timings map[string]core.RouteTiming, time float64) core.PlayerAnimationState {
	ps.CurrentPosition = ps.StartPosition
	ps.Progress = 0
	if ps.RouteID == nil {
		return ps
	}
	rt, ok := timings[*ps.RouteID]
	if !ok {
		return ps
	}
	if p, ok := PositionAt(rt, time); ok {
		ps.CurrentPosition = p
	}
	ps.Progress = RouteProgress(rt, time)
	return ps
}
