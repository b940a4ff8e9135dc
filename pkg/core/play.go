// pkg/core/play.go
package core

// Coordinate is a point on the field in feet.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointRole describes what a control point is used for in a path
type PointRole string

const (
	RoleStart        PointRole = "start"
	RoleIntermediate PointRole = "intermediate"
	RoleControl      PointRole = "control"
	RoleEnd          PointRole = "end"
)

// ControlPoint is a named point in a drawing's point pool. Segments refer to
// control points by ID so continuity can be checked by identity.
type ControlPoint struct {
	ID   string    `json:"id"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Role PointRole `json:"role,omitempty"`
}

// Coordinate returns the position of the control point
func (p ControlPoint) Coordinate() Coordinate {
	return Coordinate{X: p.X, Y: p.Y}
}

// SegmentType is the curve kind of a path segment
type SegmentType string

const (
	SegmentLine      SegmentType = "line"
	SegmentQuadratic SegmentType = "quadratic"
	SegmentCubic     SegmentType = "cubic"
)

// RequiredPoints returns how many control points the segment type needs,
// or 0 for unknown types.
func (t SegmentType) RequiredPoints() int {
	switch t {
	case SegmentLine:
		return 2
	case SegmentQuadratic:
		return 3
	case SegmentCubic:
		return 4
	default:
		return 0
	}
}

// PathSegment is one piece of a drawing's path
type PathSegment struct {
	Type     SegmentType `json:"type"`
	PointIDs []string    `json:"pointIds"`
}

// PathMode controls whether an all-line path is drawn sharp or smoothed
type PathMode string

const (
	PathSharp PathMode = "sharp"
	PathCurve PathMode = "curve"
)

// DrawingStyle holds the rendering attributes of a drawing
type DrawingStyle struct {
	PathMode    PathMode `json:"pathMode"`
	Color       string   `json:"color"`
	StrokeWidth float64  `json:"strokeWidth"`
	LineStyle   string   `json:"lineStyle"` // solid, dashed
	LineEnd     string   `json:"lineEnd"`   // none, arrow, tShape
}

// Drawing is a single authored path, optionally linked to a player
type Drawing struct {
	ID       string                  `json:"id"`
	PlayerID *string                 `json:"playerId"`
	Points   map[string]ControlPoint `json:"points"`
	Segments []PathSegment           `json:"segments"`
	Style    DrawingStyle            `json:"style"`
}

// LinkedTo reports whether the drawing is linked to the given player
func (d Drawing) LinkedTo(playerID string) bool {
	return d.PlayerID != nil && *d.PlayerID == playerID
}

// ResolvePoints looks up the segment's point IDs in the drawing's pool.
// IDs that do not resolve are skipped.
func (d Drawing) ResolvePoints(seg PathSegment) []Coordinate {
	out := make([]Coordinate, 0, len(seg.PointIDs))
	for _, id := range seg.PointIDs {
		if p, ok := d.Points[id]; ok {
			out = append(out, p.Coordinate())
		}
	}
	return out
}

// StartPoint returns the first resolvable point of the drawing's path
func (d Drawing) StartPoint() (Coordinate, bool) {
	for _, seg := range d.Segments {
		pts := d.ResolvePoints(seg)
		if len(pts) > 0 {
			return pts[0], true
		}
	}
	return Coordinate{}, false
}

// Player is a player marker placed on the field
type Player struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// Position returns the player's placed coordinate
func (p Player) Position() Coordinate {
	return Coordinate{X: p.X, Y: p.Y}
}

// Play is the animation-relevant content of a play
type Play struct {
	ID         string    `json:"id"`
	PlaybookID string    `json:"playbookId,omitempty"`
	Name       string    `json:"name"`
	Players    []Player  `json:"players"`
	Drawings   []Drawing `json:"drawings"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Clone returns a deep copy of the play
func (p Play) Clone() Play {
	out := p
	out.Players = append([]Player(nil), p.Players...)
	if p.Drawings != nil {
		out.Drawings = make([]Drawing, len(p.Drawings))
		for i, d := range p.Drawings {
			out.Drawings[i] = d.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the drawing
func (d Drawing) Clone() Drawing {
	out := d
	if d.PlayerID != nil {
		out.PlayerID = StringPtr(*d.PlayerID)
	}
	if d.Points != nil {
		out.Points = make(map[string]ControlPoint, len(d.Points))
		for k, v := range d.Points {
			out.Points[k] = v
		}
	}
	if d.Segments != nil {
		out.Segments = make([]PathSegment, len(d.Segments))
		for i, s := range d.Segments {
			out.Segments[i] = PathSegment{Type: s.Type, PointIDs: append([]string(nil), s.PointIDs...)}
		}
	}
	return out
}
