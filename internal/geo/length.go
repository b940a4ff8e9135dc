package geo

import (
	"math"

	"github.com/gridironlab/playbook/pkg/core"
)

// CurveLength approximates the arc length of a quadratic or cubic Bezier by
// summing chords between samples+1 uniformly spaced points.
// Two points are treated as a straight line.
func CurveLength(pts []core.Coordinate, samples int) float64 {
	switch len(pts) {
	case 0, 1:
		return 0
	case 2:
		return Distance(pts[0], pts[1])
	}
	if samples < 1 {
		samples = DefaultCurveSamples
	}

	segType := core.SegmentQuadratic
	if len(pts) >= 4 {
		segType = core.SegmentCubic
	}

	var length float64
	prev := pts[0]
	for i := 1; i <= samples; i++ {
		p, _ := PointOnSegment(segType, pts, float64(i)/float64(samples))
		length += Distance(prev, p)
		prev = p
	}
	return length
}

// SegmentLength returns the length of a segment in feet.
// Segments whose point count does not match their type measure 0.
func SegmentLength(segType core.SegmentType, pts []core.Coordinate) float64 {
	need := segType.RequiredPoints()
	if need == 0 || len(pts) < need {
		return 0
	}
	if segType == core.SegmentLine {
		return Distance(pts[0], pts[1])
	}
	return CurveLength(pts[:need], DefaultCurveSamples)
}

// EndPlacement returns where a line ending (arrow, T) sits on a segment and
// the heading in radians of the path as it arrives there.
func EndPlacement(segType core.SegmentType, pts []core.Coordinate) (core.Coordinate, float64, bool) {
	need := segType.RequiredPoints()
	if need == 0 || len(pts) < need {
		return core.Coordinate{}, 0, false
	}
	end := pts[need-1]

	var from core.Coordinate
	if segType == core.SegmentLine {
		from = pts[0]
	} else {
		from, _ = PointOnSegment(segType, pts, 1-1/float64(LineEndSamples))
	}
	if from == end {
		return end, 0, true
	}
	return end, math.Atan2(end.Y-from.Y, end.X-from.X), true
}

// RouteEnd places the line ending of a timed route on its last segment
// that can carry one. A bridged segment is measured without its bridge.
func RouteEnd(rt core.RouteTiming) (core.Coordinate, float64, bool) {
	for i := len(rt.Segments) - 1; i >= 0; i-- {
		seg := rt.Segments[i]
		pts := seg.Points
		if need := seg.Type.RequiredPoints(); need > 0 && len(pts) > need {
			pts = pts[len(pts)-need:]
		}
		if end, heading, ok := EndPlacement(seg.Type, pts); ok {
			return end, heading, true
		}
	}
	return core.Coordinate{}, 0, false
}

// SegmentPoint evaluates a timed segment at local progress t. A segment
// carrying one point more than its type needs starts with a straight bridge
// from that extra point; t is split between bridge and curve by length.
func SegmentPoint(seg core.SegmentTiming, t float64) (core.Coordinate, bool) {
	t = clampT(t)
	pts := seg.Points
	need := seg.Type.RequiredPoints()
	if need == 0 || len(pts) < need {
		if len(pts) > 0 {
			return pts[len(pts)-1], false
		}
		return core.Coordinate{}, false
	}
	if len(pts) == need {
		return PointOnSegment(seg.Type, pts, t)
	}

	bridge := Distance(pts[0], pts[1])
	body := SegmentLength(seg.Type, pts[1:])
	total := bridge + body
	if total == 0 {
		return pts[len(pts)-1], true
	}
	d := t * total
	if d <= bridge {
		if bridge == 0 {
			return pts[1], true
		}
		return InterpolateLine(pts[0], pts[1], d/bridge), true
	}
	if body == 0 {
		return pts[len(pts)-1], true
	}
	return PointOnSegment(seg.Type, pts[1:], (d-bridge)/body)
}

// BridgedLength measures a segment's point list as produced by route timing:
// the segment itself plus an optional leading bridge edge.
func BridgedLength(segType core.SegmentType, pts []core.Coordinate) float64 {
	need := segType.RequiredPoints()
	if need == 0 || len(pts) < need {
		return 0
	}
	if len(pts) == need {
		return SegmentLength(segType, pts)
	}
	return Distance(pts[0], pts[1]) + SegmentLength(segType, pts[1:])
}
