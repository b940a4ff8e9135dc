package influx

import (
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gridironlab/playbook/internal/playback"
)

// Recorder buffers telemetry points
type Recorder interface {
	Record(*influxdb2_write.Point)
}

// Tracker turns the frame stream of one session into playback samples. A
// sample is recorded when a play completes, and for an unfinished play when
// another play is loaded or the stream ends.
type Tracker struct {
	session string
	rec     Recorder

	current *PlaybackSample
	started time.Time
	// play whose completion was recorded last; its trailing complete
	// frames are not a new sample
	completed string
}

// NewTracker creates a tracker for session writing to rec
func NewTracker(session string, rec Recorder) *Tracker {
	return &Tracker{session: session, rec: rec}
}

// Observe accounts for one frame received at now
func (t *Tracker) Observe(f playback.Frame, now time.Time) {
	if t.current != nil && t.current.PlayID != f.PlayID {
		t.emit(now)
	}
	if t.current == nil {
		if f.PlayID == t.completed && f.Phase == playback.PhaseComplete {
			return
		}
		t.current = &PlaybackSample{Session: t.session, PlayID: f.PlayID}
		t.started = now
	}

	t.current.Frames++
	t.current.PlaybackSpeed = f.PlaybackSpeed
	t.current.LoopMode = f.LoopMode
	if f.Phase == playback.PhaseComplete && !t.current.Completed {
		t.current.Completed = true
		t.completed = f.PlayID
		t.emit(now)
	}
}

// Finish records the sample of an unfinished play, if any
func (t *Tracker) Finish(now time.Time, dropped int) {
	if t.current != nil {
		t.current.Dropped = dropped
		t.emit(now)
	}
}

func (t *Tracker) emit(now time.Time) {
	s := *t.current
	s.Duration = now.Sub(t.started)
	s.Time = now
	t.rec.Record(SessionPoint(s))
	t.current = nil
}
