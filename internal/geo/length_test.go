package geo

import (
	"math"
	"testing"

	"github.com/gridironlab/playbook/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentLength_Line(t *testing.T) {
	got := SegmentLength(core.SegmentLine, []core.Coordinate{pt(0, 0), pt(3, 4)})
	assert.Equal(t, 5.0, got)
}

func TestSegmentLength_StraightCurvesMatchChord(t *testing.T) {
	// control points on the chord: arc length equals chord length
	quad := SegmentLength(core.SegmentQuadratic, []core.Coordinate{pt(0, 0), pt(5, 0), pt(10, 0)})
	assert.InDelta(t, 10.0, quad, 1e-9)

	cubic := SegmentLength(core.SegmentCubic, []core.Coordinate{pt(0, 0), pt(3, 0), pt(6, 0), pt(9, 0)})
	assert.InDelta(t, 9.0, cubic, 1e-9)
}

func TestSegmentLength_CurveLongerThanChord(t *testing.T) {
	pts := []core.Coordinate{pt(0, 0), pt(5, 10), pt(10, 0)}
	got := SegmentLength(core.SegmentQuadratic, pts)

	assert.Greater(t, got, 10.0)
	// sampled chords never exceed the control polygon
	assert.Less(t, got, Distance(pts[0], pts[1])+Distance(pts[1], pts[2]))
}

func TestSegmentLength_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		segType core.SegmentType
		pts     []core.Coordinate
	}{
		{"line with one point", core.SegmentLine, []core.Coordinate{pt(0, 0)}},
		{"quadratic with two points", core.SegmentQuadratic, []core.Coordinate{pt(0, 0), pt(1, 1)}},
		{"cubic with three points", core.SegmentCubic, []core.Coordinate{pt(0, 0), pt(1, 1), pt(2, 2)}},
		{"unknown type", core.SegmentType("spline"), []core.Coordinate{pt(0, 0), pt(1, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, SegmentLength(tt.segType, tt.pts))
		})
	}
}

func TestCurveLength_SampleCountConverges(t *testing.T) {
	pts := []core.Coordinate{pt(0, 0), pt(0, 10), pt(10, 10), pt(10, 0)}
	coarse := CurveLength(pts, LineEndSamples)
	fine := CurveLength(pts, DefaultCurveSamples)

	assert.InDelta(t, fine, coarse, 0.1)
}

func TestEndPlacement(t *testing.T) {
	end, angle, ok := EndPlacement(core.SegmentLine, []core.Coordinate{pt(0, 0), pt(0, 10)})
	require.True(t, ok)
	assert.Equal(t, pt(0, 10), end)
	assert.InDelta(t, math.Pi/2, angle, 1e-9)

	// cubic arriving straight down into (10,0)
	end, angle, ok = EndPlacement(core.SegmentCubic, []core.Coordinate{pt(0, 0), pt(0, 10), pt(10, 10), pt(10, 0)})
	require.True(t, ok)
	assert.Equal(t, pt(10, 0), end)
	assert.InDelta(t, -math.Pi/2, angle, 0.2)

	_, _, ok = EndPlacement(core.SegmentQuadratic, []core.Coordinate{pt(0, 0)})
	assert.False(t, ok)
}

func TestRouteEnd(t *testing.T) {
	tests := []struct {
		name        string
		segments    []core.SegmentTiming
		wantOK      bool
		wantEnd     core.Coordinate
		wantHeading float64
	}{
		{
			name:     "no segments",
			segments: nil,
		},
		{
			name: "last line",
			segments: []core.SegmentTiming{
				{Type: core.SegmentLine, Points: []core.Coordinate{pt(0, 0), pt(10, 0)}},
				{Type: core.SegmentLine, Points: []core.Coordinate{pt(10, 0), pt(10, -5)}},
			},
			wantOK: true, wantEnd: pt(10, -5), wantHeading: -math.Pi / 2,
		},
		{
			name: "bridge ignored",
			segments: []core.SegmentTiming{
				{Type: core.SegmentLine, Points: []core.Coordinate{pt(0, 0), pt(0, 8), pt(5, 8)}},
			},
			wantOK: true, wantEnd: pt(5, 8), wantHeading: 0,
		},
		{
			name: "trailing unknown segment skipped",
			segments: []core.SegmentTiming{
				{Type: core.SegmentLine, Points: []core.Coordinate{pt(0, 0), pt(0, 10)}},
				{Type: core.SegmentType("arc"), Points: []core.Coordinate{pt(3, 3)}},
			},
			wantOK: true, wantEnd: pt(0, 10), wantHeading: math.Pi / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, heading, ok := RouteEnd(core.RouteTiming{Segments: tt.segments})
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantEnd, end)
			assert.InDelta(t, tt.wantHeading, heading, 1e-9)
		})
	}
}

func TestSegmentPoint_Bridged(t *testing.T) {
	// 5ft bridge from (0,0) to (5,0), then a 5ft line to (10,0)
	seg := core.SegmentTiming{
		Type:   core.SegmentLine,
		Points: []core.Coordinate{pt(0, 0), pt(5, 0), pt(10, 0)},
	}

	p, ok := SegmentPoint(seg, 0.25)
	require.True(t, ok)
	assert.InDelta(t, 2.5, p.X, 1e-9)

	p, ok = SegmentPoint(seg, 0.75)
	require.True(t, ok)
	assert.InDelta(t, 7.5, p.X, 1e-9)

	assert.InDelta(t, 10.0, BridgedLength(seg.Type, seg.Points), 1e-9)
}

func TestSegmentPoint_TooFewPointsFallsBackToLast(t *testing.T) {
	seg := core.SegmentTiming{
		Type:   core.SegmentCubic,
		Points: []core.Coordinate{pt(0, 0), pt(4, 4)},
	}
	p, ok := SegmentPoint(seg, 0.5)
	assert.False(t, ok)
	assert.Equal(t, pt(4, 4), p)
}
