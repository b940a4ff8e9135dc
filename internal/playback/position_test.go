package playback

import (
	"math"
	"testing"

	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/internal/timing"
	"github.com/gridironlab/playbook/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func route(speed float64, pts ...core.Coordinate) core.RouteTiming {
	d := geo.DrawingFromPolyline("r", core.StringPtr("p"), pts, core.DrawingStyle{PathMode: core.PathSharp})
	return timing.CalculateRouteTiming(d, speed)
}

func TestPositionAt_StraightLine(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0))
	require.Equal(t, 1000.0, rt.Duration)

	p, ok := PositionAt(rt, 500)
	require.True(t, ok)
	assert.InDelta(t, 5.0, p.X, 1e-9)
	assert.InDelta(t, 0.0, p.Y, 1e-9)
}

func TestPositionAt_SecondSegment(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0), pt(10, 10))

	p, ok := PositionAt(rt, 1500)
	require.True(t, ok)
	assert.InDelta(t, 10.0, p.X, 1e-9)
	assert.InDelta(t, 5.0, p.Y, 1e-9)
}

func TestPositionAt_Clamps(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0), pt(10, 10))

	p, ok := PositionAt(rt, 99999)
	require.True(t, ok)
	assert.Equal(t, pt(10, 10), p)

	p, ok = PositionAt(rt, -50)
	require.True(t, ok)
	assert.Equal(t, pt(0, 0), p)
}

func TestPositionAt_NoSegments(t *testing.T) {
	_, ok := PositionAt(core.RouteTiming{}, 100)
	assert.False(t, ok)
}

func TestPositionAt_ZeroDurationSegment(t *testing.T) {
	rt := core.RouteTiming{
		Segments: []core.SegmentTiming{
			{Type: core.SegmentLine, Points: []core.Coordinate{pt(3, 3), pt(3, 3)}},
		},
	}

	p, ok := PositionAt(rt, 0)
	require.True(t, ok)
	assert.Equal(t, pt(3, 3), p)
}

func TestPositionAt_SkipsZeroDurationWindows(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0))
	// a degenerate segment at the very start must not win over the real one
	rt.Segments = append([]core.SegmentTiming{{
		Type:   core.SegmentCubic,
		Points: []core.Coordinate{pt(50, 50), pt(60, 60)},
	}}, rt.Segments...)

	p, ok := PositionAt(rt, 0)
	require.True(t, ok)
	assert.Equal(t, pt(0, 0), p)
}

func TestPositionAt_TrailingEmptySegment(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0))
	rt.Segments = append(rt.Segments, core.SegmentTiming{
		Type:      core.SegmentType("arc"),
		StartTime: rt.Duration,
		EndTime:   rt.Duration,
	})

	for _, tm := range []float64{1000, 5000} {
		p, ok := PositionAt(rt, tm)
		require.True(t, ok)
		assert.Equal(t, pt(10, 0), p, "time %v", tm)
	}
}

func TestPositionAt_CubicRoute(t *testing.T) {
	d := core.Drawing{
		ID:       "wheel",
		PlayerID: core.StringPtr("rb"),
		Points: map[string]core.ControlPoint{
			"a": {ID: "a", X: 0, Y: 0},
			"b": {ID: "b", X: 0, Y: 10},
			"c": {ID: "c", X: 10, Y: 10},
			"e": {ID: "e", X: 10, Y: 0},
		},
		Segments: []core.PathSegment{{Type: core.SegmentCubic, PointIDs: []string{"a", "b", "c", "e"}}},
	}
	rt := timing.CalculateRouteTiming(d, timing.DefaultSpeedFps)

	mid, ok := PositionAt(rt, rt.Duration/2)
	require.True(t, ok)
	assert.InDelta(t, 5.0, mid.X, 1e-9)
	assert.InDelta(t, 7.5, mid.Y, 1e-9)

	end, ok := PositionAt(rt, rt.Duration)
	require.True(t, ok)
	assert.Equal(t, pt(10, 0), end)
}

func TestRouteProgress_Monotonic(t *testing.T) {
	rt := route(7, pt(0, 0), pt(10, 0), pt(10, 10), pt(-4, 12))

	prev := -1.0
	for ms := -100.0; ms <= rt.Duration+500; ms += 37 {
		p := RouteProgress(rt, ms)
		assert.GreaterOrEqual(t, p, prev, "t=%v", ms)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
}

func TestRouteProgress_ZeroDuration(t *testing.T) {
	assert.Equal(t, 0.0, RouteProgress(core.RouteTiming{}, 500))
}

func TestTraveledLength(t *testing.T) {
	rt := route(10, pt(0, 0), pt(10, 0), pt(10, 10))

	assert.Equal(t, 0.0, TraveledLength(rt, 0))
	assert.InDelta(t, 5.0, TraveledLength(rt, 500), 1e-9)
	assert.InDelta(t, 15.0, TraveledLength(rt, 1500), 1e-9)
	assert.InDelta(t, 20.0, TraveledLength(rt, 5000), 1e-9)
}

func TestRecomputePositions_MissingRoute(t *testing.T) {
	states := []core.PlayerAnimationState{{
		PlayerID:        "wr",
		StartPosition:   pt(1, 2),
		CurrentPosition: pt(9, 9),
		Progress:        0.4,
		RouteID:         core.StringPtr("deleted"),
	}}

	out := RecomputePositions(states, map[string]core.RouteTiming{}, 800)

	require.Len(t, out, 1)
	assert.Equal(t, pt(1, 2), out[0].CurrentPosition)
	assert.Equal(t, 0.0, out[0].Progress)
	// input untouched
	assert.Equal(t, pt(9, 9), states[0].CurrentPosition)
}

func TestSnapshotFrame(t *testing.T) {
	s := Reduce(loadedState(t), Play{})
	s = Reduce(s, Tick{DeltaTime: 1500})
	s = Reduce(s, ToggleGhostTrail{})

	f := SnapshotFrame(s)

	assert.Equal(t, "slant", f.PlayID)
	assert.Equal(t, PhaseExecution, f.Phase)
	assert.True(t, f.IsPlaying)
	assert.True(t, f.ShowGhostTrail)
	assert.InDelta(t, 0.5, f.Progress, 1e-9)
	require.Len(t, f.Players, 2)
	require.Len(t, f.Routes, 1)
	assert.Equal(t, "route", f.Routes[0].DrawingID)
	assert.InDelta(t, 20.0, f.Routes[0].TotalLength, 1e-9)
	assert.InDelta(t, 15.0, f.Routes[0].RevealedLength, 1e-9)
	assert.InDelta(t, 0.75, f.Routes[0].Progress, 1e-9)
	// the route turns upfield into (10,10)
	require.NotNil(t, f.Routes[0].End)
	assert.Equal(t, pt(10, 10), *f.Routes[0].End)
	assert.InDelta(t, math.Pi/2, f.Routes[0].Heading, 1e-9)

	f.Players[0].Progress = 0
	assert.NotEqual(t, 0.0, s.PlayerStates[0].Progress)
}
