package controls

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gridironlab/playbook/internal/dispatcher"
	"github.com/gridironlab/playbook/internal/playback"
	"github.com/gridironlab/playbook/internal/session"
)

var (
	// ErrUnknownSession is returned for commands addressed to no open session
	ErrUnknownSession = errors.New("unknown session")
	// ErrInvalidArgument is returned when a command argument does not parse
	ErrInvalidArgument = errors.New("invalid argument")
)

// NavigationQueueSize bounds the next/prev commands waiting for a play load
const NavigationQueueSize = 8

// cmdNavigate carries queued next/prev requests; Args[0] names the direction
const cmdNavigate = "navigate"

// VisibilitySetter is implemented by the driver of a session
type VisibilitySetter interface {
	SetVisible(bool)
}

// Controls applies commands to the sessions of a registry
type Controls struct {
	registry *session.Registry

	mu      sync.RWMutex
	drivers map[string]VisibilitySetter
}

func New(registry *session.Registry) *Controls {
	return &Controls{
		registry: registry,
		drivers:  make(map[string]VisibilitySetter),
	}
}

// Attach binds the driver of a session so visibility commands reach it
func (c *Controls) Attach(sessionID string, v VisibilitySetter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drivers[sessionID] = v
}

// Register installs a handler for every command on d
func (c *Controls) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdPlay, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.Play{}, nil
	}))
	d.Register(CmdPause, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.Pause{}, nil
	}))
	d.Register(CmdToggle, c.action(func(st playback.AnimationState, _ []string) (playback.Action, error) {
		if st.IsPlaying {
			return playback.Pause{}, nil
		}
		return playback.Play{}, nil
	}))
	d.Register(CmdStop, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.Stop{}, nil
	}))
	d.Register(CmdSeek, c.action(func(_ playback.AnimationState, args []string) (playback.Action, error) {
		p, err := floatArg(args)
		if err != nil {
			return nil, err
		}
		return playback.Seek{Progress: clamp01(p)}, nil
	}))
	d.Register(CmdScrub, c.action(func(st playback.AnimationState, args []string) (playback.Action, error) {
		delta, err := floatArg(args)
		if err != nil {
			return nil, err
		}
		return playback.Seek{Progress: clamp01(st.Progress() + delta)}, nil
	}))
	d.Register(CmdSpeed, c.action(func(_ playback.AnimationState, args []string) (playback.Action, error) {
		speed, err := floatArg(args)
		if err != nil {
			return nil, err
		}
		if !playback.IsValidSpeed(speed) {
			return nil, fmt.Errorf("speed %v: %w", speed, ErrInvalidArgument)
		}
		return playback.SetSpeed{Speed: speed}, nil
	}))
	d.Register(CmdReset, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.Reset{}, nil
	}))
	d.Register(CmdLoop, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.ToggleLoop{}, nil
	}))
	d.Register(CmdGhost, c.action(func(_ playback.AnimationState, _ []string) (playback.Action, error) {
		return playback.ToggleGhostTrail{}, nil
	}))

	// loads may hit storage, so navigation runs on one queue in arrival order
	d.Register(cmdNavigate, c.navigate, dispatcher.Buffered(NavigationQueueSize), dispatcher.Logged())
	d.Register(CmdNext, c.enqueueNavigation(d, CmdNext))
	d.Register(CmdPrev, c.enqueueNavigation(d, CmdPrev))
	d.Register(CmdClose, c.close, dispatcher.Logged())
	d.Register(CmdVisibility, c.visibility)
}

type actionFunc func(playback.AnimationState, []string) (playback.Action, error)

// action wraps fn into a handler dispatching its action to the event's session
func (c *Controls) action(fn actionFunc) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		s, err := c.lookup(e.Session)
		if err != nil {
			return nil, err
		}
		a, err := fn(s.State(), e.Args)
		if err != nil {
			return nil, err
		}
		return s.Dispatch(a), nil
	}
}

// enqueueNavigation checks the session synchronously and queues the move
func (c *Controls) enqueueNavigation(d *dispatcher.Dispatcher, direction string) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		if _, err := c.lookup(e.Session); err != nil {
			return nil, err
		}
		return d.Dispatch(dispatcher.Event{
			Session:   e.Session,
			Command:   cmdNavigate,
			Args:      []string{direction},
			Timestamp: e.Timestamp,
		})
	}
}

func (c *Controls) navigate(e dispatcher.Event) (any, error) {
	s, err := c.lookup(e.Session)
	if err != nil {
		return nil, err
	}
	if len(e.Args) == 1 && e.Args[0] == CmdPrev {
		return s.Prev(context.Background())
	}
	return s.Next(context.Background())
}

func (c *Controls) close(e dispatcher.Event) (any, error) {
	if _, err := c.lookup(e.Session); err != nil {
		return nil, err
	}
	c.mu.Lock()
	delete(c.drivers, e.Session)
	c.mu.Unlock()
	c.registry.Close(e.Session)
	return true, nil
}

func (c *Controls) visibility(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("visibility needs one argument: %w", ErrInvalidArgument)
	}
	var visible bool
	switch e.Args[0] {
	case "visible":
		visible = true
	case "hidden":
	default:
		return nil, fmt.Errorf("visibility %q: %w", e.Args[0], ErrInvalidArgument)
	}

	c.mu.RLock()
	v, ok := c.drivers[e.Session]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s has no driver: %w", e.Session, ErrUnknownSession)
	}
	v.SetVisible(visible)
	return visible, nil
}

func (c *Controls) lookup(id string) (*session.Session, error) {
	s, ok := c.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownSession)
	}
	return s, nil
}

func floatArg(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one argument, got %d: %w", len(args), ErrInvalidArgument)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", args[0], ErrInvalidArgument)
	}
	return v, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
