// Package controls maps viewer controls and keyboard shortcuts onto
// playback actions.
package controls

import (
	"strconv"

	"github.com/gridironlab/playbook/internal/dispatcher"
)

// Command names accepted by the control surface
const (
	CmdPlay       = "play"
	CmdPause      = "pause"
	CmdToggle     = "toggle"
	CmdStop       = "stop"
	CmdSeek       = "seek"
	CmdScrub      = "scrub"
	CmdSpeed      = "speed"
	CmdReset      = "reset"
	CmdLoop       = "loop"
	CmdGhost      = "ghost"
	CmdNext       = "next"
	CmdPrev       = "prev"
	CmdClose      = "close"
	CmdVisibility = "visibility"
)

// ScrubStep is the seek distance of one arrow key press
const ScrubStep = 0.05

// Command is a control command with its arguments
type Command struct {
	Name string
	Args []string
}

// Keys understood by KeyCommand
const (
	KeySpace  = "Space"
	KeyLeft   = "ArrowLeft"
	KeyRight  = "ArrowRight"
	KeyEscape = "Escape"
)

var speedKeys = map[string]float64{
	"1": 0.25,
	"2": 0.5,
	"3": 1,
	"4": 1.5,
	"5": 2,
}

// KeyCommand maps a keyboard shortcut to a command. Letter keys are case
// insensitive. It returns false for unbound keys.
func KeyCommand(key string, shift bool) (Command, bool) {
	switch key {
	case KeySpace, " ":
		return Command{Name: CmdToggle}, true
	case KeyLeft:
		if shift {
			return Command{Name: CmdPrev}, true
		}
		return scrub(-ScrubStep), true
	case KeyRight:
		if shift {
			return Command{Name: CmdNext}, true
		}
		return scrub(ScrubStep), true
	case "r", "R":
		return Command{Name: CmdReset}, true
	case "l", "L":
		return Command{Name: CmdLoop}, true
	case "g", "G":
		return Command{Name: CmdGhost}, true
	case KeyEscape:
		return Command{Name: CmdClose}, true
	}
	if speed, ok := speedKeys[key]; ok {
		return Command{Name: CmdSpeed, Args: []string{formatFloat(speed)}}, true
	}
	return Command{}, false
}

func scrub(delta float64) Command {
	return Command{Name: CmdScrub, Args: []string{formatFloat(delta)}}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Event addresses cmd to a session
func (cmd Command) Event(sessionID string) dispatcher.Event {
	return dispatcher.Event{Session: sessionID, Command: cmd.Name, Args: cmd.Args}
}
