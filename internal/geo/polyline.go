package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gridironlab/playbook/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParsePolyline parses a JSON array of coordinates into field coordinates.
// Input format: "[[x1,y1],[x2,y2],...]"
func ParsePolyline(input string) ([]core.Coordinate, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return nil, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	out := make([]core.Coordinate, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
		out[i] = core.Coordinate{X: coord[0], Y: coord[1]}
	}
	return out, nil
}

// ToLineString converts coordinates into a geom.LineString
func ToLineString(points []core.Coordinate) geom.LineString {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// PolylineLength returns the total length of a polyline in feet
func PolylineLength(points []core.Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}
	return ToLineString(points).Length()
}

// DrawingFromPolyline builds a drawing of chained line segments through
// points, with generated point IDs "<id>-p<n>".
func DrawingFromPolyline(id string, playerID *string, points []core.Coordinate, style core.DrawingStyle) core.Drawing {
	d := core.Drawing{
		ID:       id,
		PlayerID: playerID,
		Points:   make(map[string]core.ControlPoint, len(points)),
		Style:    style,
	}

	ids := make([]string, len(points))
	for i, p := range points {
		role := core.RoleIntermediate
		switch i {
		case 0:
			role = core.RoleStart
		case len(points) - 1:
			role = core.RoleEnd
		}
		ids[i] = fmt.Sprintf("%s-p%d", id, i)
		d.Points[ids[i]] = core.ControlPoint{ID: ids[i], X: p.X, Y: p.Y, Role: role}
	}
	for i := 0; i+1 < len(ids); i++ {
		d.Segments = append(d.Segments, core.PathSegment{
			Type:     core.SegmentLine,
			PointIDs: []string{ids[i], ids[i+1]},
		})
	}
	return d
}

// LinePath returns the vertices a timed route travels through, joining
// consecutive segments at shared points. It reports false when the route
// holds anything other than line segments.
func LinePath(rt core.RouteTiming) ([]core.Coordinate, bool) {
	var path []core.Coordinate
	for _, seg := range rt.Segments {
		if seg.Type != core.SegmentLine {
			return nil, false
		}
		pts := seg.Points
		if n := len(path); n > 0 && len(pts) > 0 && path[n-1] == pts[0] {
			pts = pts[1:]
		}
		path = append(path, pts...)
	}
	return path, len(path) >= 2
}
