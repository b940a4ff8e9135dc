package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Team{},
	&Playbook{},
	&Play{},
	&PlayPlayer{},
	&PlayDrawing{},
}

////////////////////////
// ORGANIZATION MODELS
////////////////////////

// Team owns playbooks
type Team struct {
	gorm.Model
	Name      string `json:"name" gorm:"size:127;uniqueIndex"`
	Playbooks []Playbook
}

func (*Team) TableName() string {
	return "teams"
}

// Playbook is an ordered collection of plays
type Playbook struct {
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
	TeamID    *uint  `json:"teamId" gorm:"index:idx_playbook_team_id"`
	Name      string `json:"name" gorm:"size:200"`
	Plays     []Play `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:PlaybookID;"`
}

func (*Playbook) TableName() string {
	return "playbooks"
}

// GetOrInsert loads the playbook by ID, creating it when absent
func (p *Playbook) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existing Playbook
	err = db.Where("id = ?", p.ID).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			err = db.Create(p).Error
			return true, err
		}
		return false, err
	}
	*p = existing
	return false, nil
}

////////////////////////
// PLAY MODELS
////////////////////////

// Play is a single play diagram
type Play struct {
	ID         string `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	PlaybookID *string       `json:"playbookId" gorm:"size:64;index:idx_play_playbook_id"`
	Position   int           `json:"position" gorm:"default:0"` // order within the playbook
	Name       string        `json:"name" gorm:"size:200"`
	Players    []PlayPlayer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:PlayID;"`
	Drawings   []PlayDrawing `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:PlayID;"`
}

func (*Play) TableName() string {
	return "plays"
}

// PlayPlayer is a player marker placed on a play
type PlayPlayer struct {
	ID       uint    `json:"-" gorm:"primarykey;autoIncrement"`
	PlayID   string  `json:"playId" gorm:"size:64;index:idx_playplayer_play_id"`
	Ordinal  int     `json:"-"`
	PlayerID string  `json:"playerId" gorm:"size:64"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Label    string  `json:"label" gorm:"size:16"`
	Color    string  `json:"color" gorm:"size:32"`
}

func (*PlayPlayer) TableName() string {
	return "play_players"
}

// PlayDrawing is an authored path on a play. Point pool, segments and style
// are stored as JSON documents.
type PlayDrawing struct {
	ID        uint           `json:"-" gorm:"primarykey;autoIncrement"`
	PlayID    string         `json:"playId" gorm:"size:64;index:idx_playdrawing_play_id"`
	Ordinal   int            `json:"-"`
	DrawingID string         `json:"drawingId" gorm:"size:64"`
	PlayerID  sql.NullString `json:"playerId" gorm:"size:64"`
	Points    datatypes.JSON `json:"points"`
	Segments  datatypes.JSON `json:"segments"`
	Style     datatypes.JSON `json:"style"`
}

func (*PlayDrawing) TableName() string {
	return "play_drawings"
}
