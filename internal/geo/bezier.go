// Package geo provides the path math used by route timing: Bezier
// interpolation, arc length approximation and path smoothing.
// All coordinates are field feet.
package geo

import (
	"math"

	"github.com/gridironlab/playbook/pkg/core"
)

// Sample counts for arc length approximation of curves
const (
	DefaultCurveSamples = 50
	LineEndSamples      = 20
)

// clampT limits t to [0,1] so curves never extrapolate
func clampT(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// InterpolateLine returns the point at t along the line p0-p1
func InterpolateLine(p0, p1 core.Coordinate, t float64) core.Coordinate {
	t = clampT(t)
	return core.Coordinate{
		X: p0.X + (p1.X-p0.X)*t,
		Y: p0.Y + (p1.Y-p0.Y)*t,
	}
}

// InterpolateQuadratic returns the point at t on the quadratic Bezier p0,p1,p2
func InterpolateQuadratic(p0, p1, p2 core.Coordinate, t float64) core.Coordinate {
	t = clampT(t)
	mt := 1 - t
	a := mt * mt
	b := 2 * mt * t
	c := t * t
	return core.Coordinate{
		X: a*p0.X + b*p1.X + c*p2.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y,
	}
}

// InterpolateCubic returns the point at t on the cubic Bezier p0,p1,p2,p3
func InterpolateCubic(p0, p1, p2, p3 core.Coordinate, t float64) core.Coordinate {
	t = clampT(t)
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return core.Coordinate{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// PointOnSegment evaluates a segment of the given type at t.
// Returns false when the point count does not match the type.
func PointOnSegment(segType core.SegmentType, pts []core.Coordinate, t float64) (core.Coordinate, bool) {
	switch {
	case segType == core.SegmentLine && len(pts) >= 2:
		return InterpolateLine(pts[0], pts[1], t), true
	case segType == core.SegmentQuadratic && len(pts) >= 3:
		return InterpolateQuadratic(pts[0], pts[1], pts[2], t), true
	case segType == core.SegmentCubic && len(pts) >= 4:
		return InterpolateCubic(pts[0], pts[1], pts[2], pts[3], t), true
	}
	return core.Coordinate{}, false
}

// ContinuityEpsilon is the per-axis tolerance in feet under which two points
// are considered the same joint of a path.
const ContinuityEpsilon = 0.01

// Near reports whether a and b are within ContinuityEpsilon on both axes
func Near(a, b core.Coordinate) bool {
	return math.Abs(a.X-b.X) <= ContinuityEpsilon && math.Abs(a.Y-b.Y) <= ContinuityEpsilon
}

// Distance returns the Euclidean distance between two points
func Distance(a, b core.Coordinate) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
