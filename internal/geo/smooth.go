package geo

import (
	"github.com/gridironlab/playbook/pkg/core"
)

// SmoothingIterations is the number of corner cutting passes applied to
// curve-mode drawings.
const SmoothingIterations = 3

// corner cutting fractions along each edge
const (
	cutNear = 0.25
	cutFar  = 0.75
)

// SmoothPath rounds a polyline by iterative corner cutting. Each pass
// replaces every edge with two points at 1/4 and 3/4 of its length.
// The first and last points are never moved.
func SmoothPath(points []core.Coordinate, iterations int) []core.Coordinate {
	out := make([]core.Coordinate, len(points))
	copy(out, points)
	if len(points) < 3 {
		return out
	}

	for it := 0; it < iterations; it++ {
		next := make([]core.Coordinate, 0, 2*len(out))
		next = append(next, out[0])
		for i := 0; i < len(out)-1; i++ {
			a, b := out[i], out[i+1]
			next = append(next,
				InterpolateLine(a, b, cutNear),
				InterpolateLine(a, b, cutFar),
			)
		}
		next = append(next, out[len(out)-1])
		out = next
	}
	return out
}

// ShouldSmooth reports whether a drawing is rendered and timed along its
// smoothed path: curve mode and every segment a line.
func ShouldSmooth(d core.Drawing) bool {
	if d.Style.PathMode != core.PathCurve || len(d.Segments) == 0 {
		return false
	}
	for _, seg := range d.Segments {
		if seg.Type != core.SegmentLine {
			return false
		}
	}
	return true
}

// PathPoints flattens an all-line drawing into its ordered vertex list.
// A segment that does not start where the previous one ended contributes
// its own start point so the gap becomes an edge.
func PathPoints(d core.Drawing) []core.Coordinate {
	var out []core.Coordinate
	for _, seg := range d.Segments {
		pts := d.ResolvePoints(seg)
		if len(pts) < 2 {
			continue
		}
		if len(out) == 0 || !Near(out[len(out)-1], pts[0]) {
			out = append(out, pts[0])
		}
		out = append(out, pts[1])
	}
	return out
}

// SmoothedPoints returns the smoothed vertex list of a drawing
func SmoothedPoints(d core.Drawing) []core.Coordinate {
	return SmoothPath(PathPoints(d), SmoothingIterations)
}
