// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gridironlab/playbook/internal/model"
	"github.com/gridironlab/playbook/pkg/core"
)

// PlayerToCore converts a GORM PlayPlayer to a core.Player.
func PlayerToCore(p model.PlayPlayer) core.Player {
	return core.Player{
		ID:    p.PlayerID,
		X:     p.X,
		Y:     p.Y,
		Label: p.Label,
		Color: p.Color,
	}
}

// DrawingToCore converts a GORM PlayDrawing to a core.Drawing. Empty JSON
// columns decode to empty values.
func DrawingToCore(d model.PlayDrawing) (core.Drawing, error) {
	out := core.Drawing{
		ID:       d.DrawingID,
		PlayerID: nullStringToPtr(d.PlayerID),
		Points:   map[string]core.ControlPoint{},
	}
	if len(d.Points) > 0 {
		if err := json.Unmarshal(d.Points, &out.Points); err != nil {
			return core.Drawing{}, fmt.Errorf("drawing %s points: %w", d.DrawingID, err)
		}
	}
	if len(d.Segments) > 0 {
		if err := json.Unmarshal(d.Segments, &out.Segments); err != nil {
			return core.Drawing{}, fmt.Errorf("drawing %s segments: %w", d.DrawingID, err)
		}
	}
	if len(d.Style) > 0 {
		if err := json.Unmarshal(d.Style, &out.Style); err != nil {
			return core.Drawing{}, fmt.Errorf("drawing %s style: %w", d.DrawingID, err)
		}
	}
	return out, nil
}

// PlayToCore converts a GORM Play with its preloaded players and drawings to
// a core.Play. Players and drawings keep their stored order.
func PlayToCore(p model.Play) (core.Play, error) {
	out := core.Play{
		ID:       p.ID,
		Name:     p.Name,
		Players:  make([]core.Player, 0, len(p.Players)),
		Drawings: make([]core.Drawing, 0, len(p.Drawings)),
	}
	if p.PlaybookID != nil {
		out.PlaybookID = *p.PlaybookID
	}

	players := append([]model.PlayPlayer(nil), p.Players...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Ordinal < players[j].Ordinal })
	for _, pl := range players {
		out.Players = append(out.Players, PlayerToCore(pl))
	}

	drawings := append([]model.PlayDrawing(nil), p.Drawings...)
	sort.SliceStable(drawings, func(i, j int) bool { return drawings[i].Ordinal < drawings[j].Ordinal })
	for _, d := range drawings {
		cd, err := DrawingToCore(d)
		if err != nil {
			return core.Play{}, err
		}
		out.Drawings = append(out.Drawings, cd)
	}
	return out, nil
}

func nullStringToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
