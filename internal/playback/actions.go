package playback

import "github.com/gridironlab/playbook/internal/timing"

// Action is a state transition request handled by Reduce.
// Types Reduce does not know leave the state unchanged.
type Action interface {
	Name() string
}

// LoadPlay replaces the loaded play. Viewer preferences (speed, loop,
// ghost trail) are kept.
type LoadPlay struct {
	Payload timing.LoadPlayPayload
}

// Play starts or resumes playback, restarting from 0 when at the end
type Play struct{}

// Pause freezes playback in place
type Pause struct{}

// Stop halts playback and rewinds to 0
type Stop struct{}

// Seek jumps to Progress (0..1) of the total duration. Progress is not
// clamped here.
type Seek struct {
	Progress float64
}

// SetSpeed changes the playback speed multiplier
type SetSpeed struct {
	Speed float64
}

// Tick advances the clock by DeltaTime milliseconds
type Tick struct {
	DeltaTime float64
}

// Reset rewinds to 0 without changing whether playback is running
type Reset struct{}

type ToggleGhostTrail struct{}

type ToggleLoop struct{}

func (LoadPlay) Name() string         { return "LOAD_PLAY" }
func (Play) Name() string             { return "PLAY" }
func (Pause) Name() string            { return "PAUSE" }
func (Stop) Name() string             { return "STOP" }
func (Seek) Name() string             { return "SEEK" }
func (SetSpeed) Name() string         { return "SET_SPEED" }
func (Tick) Name() string             { return "TICK" }
func (Reset) Name() string            { return "RESET" }
func (ToggleGhostTrail) Name() string { return "TOGGLE_GHOST_TRAIL" }
func (ToggleLoop) Name() string       { return "TOGGLE_LOOP" }
