package memory

import (
	"encoding/json"
	"fmt"

	"github.com/gridironlab/playbook/internal/geo"
)

// legacyFile picks the polyline form of drawings out of a playbook file.
// Older exports stored a route as "polyline": [[x,y],...] without a
// point pool or segments.
type legacyFile struct {
	Plays []struct {
		Drawings []struct {
			Polyline json.RawMessage `json:"polyline"`
		} `json:"drawings"`
	} `json:"plays"`
}

// expandPolylines replaces every segment-less drawing that carries a
// polyline with the equivalent drawing of line segments
func expandPolylines(raw []byte, file *PlaybookFile) error {
	var legacy legacyFile
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fmt.Errorf("failed to decode playbook file: %w", err)
	}

	for i, lp := range legacy.Plays {
		if i >= len(file.Plays) {
			break
		}
		play := &file.Plays[i]
		for j, ld := range lp.Drawings {
			if j >= len(play.Drawings) || len(ld.Polyline) == 0 || string(ld.Polyline) == "null" {
				continue
			}
			d := play.Drawings[j]
			if len(d.Segments) > 0 {
				continue
			}

			input := string(ld.Polyline)
			// also accept the polyline as an embedded JSON string
			var s string
			if json.Unmarshal(ld.Polyline, &s) == nil {
				input = s
			}
			pts, err := geo.ParsePolyline(input)
			if err != nil {
				return fmt.Errorf("play %s drawing %s: %w", play.ID, d.ID, err)
			}
			play.Drawings[j] = geo.DrawingFromPolyline(d.ID, d.PlayerID, pts, d.Style)
		}
	}
	return nil
}
