package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Team", &Team{}, "teams"},
		{"Playbook", &Playbook{}, "playbooks"},
		{"Play", &Play{}, "plays"},
		{"PlayPlayer", &PlayPlayer{}, "play_players"},
		{"PlayDrawing", &PlayDrawing{}, "play_drawings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels(t *testing.T) {
	assert.Len(t, DatabaseModels, 5)
}
