package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePlay() Play {
	return Play{
		ID:         "slant",
		PlaybookID: "red-zone",
		Players:    []Player{{ID: "wr", X: 10, Y: 0}},
		Drawings: []Drawing{{
			ID:       "r1",
			PlayerID: StringPtr("wr"),
			Points: map[string]ControlPoint{
				"a": {ID: "a", X: 10, Y: 0},
				"b": {ID: "b", X: 15, Y: 5},
			},
			Segments: []PathSegment{{Type: SegmentLine, PointIDs: []string{"a", "b"}}},
		}},
	}
}

func TestPlayClone_Independent(t *testing.T) {
	orig := samplePlay()
	c := orig.Clone()
	assert.Equal(t, orig, c)

	c.Players[0].X = 99
	*c.Drawings[0].PlayerID = "te"
	c.Drawings[0].Points["a"] = ControlPoint{ID: "a", X: -1}
	c.Drawings[0].Segments[0].PointIDs[0] = "z"

	assert.Equal(t, 10.0, orig.Players[0].X)
	assert.Equal(t, "wr", *orig.Drawings[0].PlayerID)
	assert.Equal(t, 10.0, orig.Drawings[0].Points["a"].X)
	assert.Equal(t, "a", orig.Drawings[0].Segments[0].PointIDs[0])
}

func TestDrawingClone_NilFields(t *testing.T) {
	d := Drawing{ID: "free"}
	c := d.Clone()
	assert.Nil(t, c.PlayerID)
	assert.Nil(t, c.Points)
	assert.Nil(t, c.Segments)
}

func TestSegmentTypeRequiredPoints(t *testing.T) {
	tests := []struct {
		typ  SegmentType
		want int
	}{
		{SegmentLine, 2},
		{SegmentQuadratic, 3},
		{SegmentCubic, 4},
		{"arc", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.RequiredPoints())
		})
	}
}

func TestDrawingLinkedTo(t *testing.T) {
	d := Drawing{PlayerID: StringPtr("qb")}
	assert.True(t, d.LinkedTo("qb"))
	assert.False(t, d.LinkedTo("wr"))
	assert.False(t, Drawing{}.LinkedTo("qb"))
}

func TestRouteTimingClone_Independent(t *testing.T) {
	orig := RouteTiming{
		DrawingID: "r1",
		PlayerID:  StringPtr("wr"),
		Segments: []SegmentTiming{
			{Type: SegmentLine, Length: 5, EndTime: 500, Points: []Coordinate{{X: 0, Y: 0}, {X: 5, Y: 0}}},
			{Type: SegmentLine, Points: []Coordinate{}},
		},
	}
	c := orig.Clone()
	assert.Equal(t, orig, c)

	*c.PlayerID = "te"
	c.Segments[0].EndTime = 1
	c.Segments[0].Points[1].X = 99

	assert.Equal(t, "wr", *orig.PlayerID)
	assert.Equal(t, 500.0, orig.Segments[0].EndTime)
	assert.Equal(t, 5.0, orig.Segments[0].Points[1].X)
}

func TestPlayerAnimationStateClone_Independent(t *testing.T) {
	orig := PlayerAnimationState{PlayerID: "wr", RouteID: StringPtr("r1")}
	c := orig.Clone()
	*c.RouteID = "r2"
	assert.Equal(t, "r1", *orig.RouteID)
	assert.Nil(t, PlayerAnimationState{}.Clone().RouteID)
}
