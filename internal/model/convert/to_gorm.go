package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gridironlab/playbook/internal/model"
	"github.com/gridironlab/playbook/pkg/core"
	"gorm.io/datatypes"
)

// CoreToPlayer converts a core.Player to a GORM PlayPlayer at the given
// position in the play.
func CoreToPlayer(playID string, ordinal int, p core.Player) model.PlayPlayer {
	return model.PlayPlayer{
		PlayID:   playID,
		Ordinal:  ordinal,
		PlayerID: p.ID,
		X:        p.X,
		Y:        p.Y,
		Label:    p.Label,
		Color:    p.Color,
	}
}

// CoreToDrawing converts a core.Drawing to a GORM PlayDrawing.
func CoreToDrawing(playID string, ordinal int, d core.Drawing) (model.PlayDrawing, error) {
	points := d.Points
	if points == nil {
		points = map[string]core.ControlPoint{}
	}
	pointsJSON, err := toJSON(points)
	if err != nil {
		return model.PlayDrawing{}, fmt.Errorf("drawing %s points: %w", d.ID, err)
	}

	segments := d.Segments
	if segments == nil {
		segments = []core.PathSegment{}
	}
	segmentsJSON, err := toJSON(segments)
	if err != nil {
		return model.PlayDrawing{}, fmt.Errorf("drawing %s segments: %w", d.ID, err)
	}

	styleJSON, err := toJSON(d.Style)
	if err != nil {
		return model.PlayDrawing{}, fmt.Errorf("drawing %s style: %w", d.ID, err)
	}

	return model.PlayDrawing{
		PlayID:    playID,
		Ordinal:   ordinal,
		DrawingID: d.ID,
		PlayerID:  ptrToNullString(d.PlayerID),
		Points:    pointsJSON,
		Segments:  segmentsJSON,
		Style:     styleJSON,
	}, nil
}

// CoreToPlay converts a core.Play to a GORM Play with its players and
// drawings. position is the play's index within its playbook.
func CoreToPlay(p core.Play, position int) (model.Play, error) {
	out := model.Play{
		ID:       p.ID,
		Name:     p.Name,
		Position: position,
		Players:  make([]model.PlayPlayer, 0, len(p.Players)),
		Drawings: make([]model.PlayDrawing, 0, len(p.Drawings)),
	}
	if p.PlaybookID != "" {
		id := p.PlaybookID
		out.PlaybookID = &id
	}

	for i, pl := range p.Players {
		out.Players = append(out.Players, CoreToPlayer(p.ID, i, pl))
	}
	for i, d := range p.Drawings {
		md, err := CoreToDrawing(p.ID, i, d)
		if err != nil {
			return model.Play{}, err
		}
		out.Drawings = append(out.Drawings, md)
	}
	return out, nil
}

func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func ptrToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
