// Package timing converts drawn routes into time-stamped segment schedules
// and assembles the payload a playback session loads.
package timing

import (
	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/pkg/core"
)

// DefaultSpeedFps is the constant player speed in feet per second
const DefaultSpeedFps = 15.0

// durationMs converts a length in feet to milliseconds at speedFps
func durationMs(length, speedFps float64) float64 {
	if speedFps <= 0 || length <= 0 {
		return 0
	}
	return length / speedFps * 1000
}

// CalculateRouteTiming lays a drawing's segments end to end in time at a
// constant speed. Malformed segments are kept with zero length so segment
// order stays stable; nothing here returns an error.
func CalculateRouteTiming(d core.Drawing, speedFps float64) core.RouteTiming {
	rt := core.RouteTiming{
		DrawingID: d.ID,
		PlayerID:  d.PlayerID,
		Segments:  []core.SegmentTiming{},
	}

	if geo.ShouldSmooth(d) {
		rt.Segments = smoothedSegments(geo.SmoothedPoints(d), speedFps)
	} else {
		rt.Segments = literalSegments(d, speedFps)
	}

	for _, s := range rt.Segments {
		rt.TotalLength += s.Length
	}
	if n := len(rt.Segments); n > 0 {
		rt.Duration = rt.Segments[n-1].EndTime
	}
	return rt
}

// smoothedSegments builds one line segment per consecutive pair of points
func smoothedSegments(points []core.Coordinate, speedFps float64) []core.SegmentTiming {
	out := make([]core.SegmentTiming, 0, len(points))
	var clock float64
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		length := geo.Distance(a, b)
		end := clock + durationMs(length, speedFps)
		out = append(out, core.SegmentTiming{
			Type:      core.SegmentLine,
			Length:    length,
			StartTime: clock,
			EndTime:   end,
			Points:    []core.Coordinate{a, b},
		})
		clock = end
	}
	return out
}

// literalSegments walks the authored segments in order. When a segment does
// not start where the previous one ended, the previous end point is
// prepended so the player travels the gap instead of jumping.
func literalSegments(d core.Drawing, speedFps float64) []core.SegmentTiming {
	out := make([]core.SegmentTiming, 0, len(d.Segments))
	var (
		clock   float64
		lastEnd *core.Coordinate
	)

	for _, seg := range d.Segments {
		pts := d.ResolvePoints(seg)
		need := seg.Type.RequiredPoints()
		if need == 0 {
			// unknown types hold their slot with zero length and duration
			out = append(out, core.SegmentTiming{
				Type:      seg.Type,
				StartTime: clock,
				EndTime:   clock,
				Points:    pts,
			})
			if len(pts) > 0 {
				last := pts[len(pts)-1]
				lastEnd = &last
			}
			continue
		}
		if len(pts) < 2 {
			continue
		}
		if need > 0 && len(pts) > need {
			pts = pts[:need]
		}
		// malformed segments are never bridged
		wellFormed := len(pts) == need
		if wellFormed && lastEnd != nil && !geo.Near(*lastEnd, pts[0]) {
			pts = append([]core.Coordinate{*lastEnd}, pts...)
		}

		length := geo.BridgedLength(seg.Type, pts)
		end := clock + durationMs(length, speedFps)
		out = append(out, core.SegmentTiming{
			Type:      seg.Type,
			Length:    length,
			StartTime: clock,
			EndTime:   end,
			Points:    pts,
		})

		clock = end
		last := pts[len(pts)-1]
		lastEnd = &last
	}
	return out
}
