package influx

import (
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names
const (
	MeasurementSession  = "playback_session"
	MeasurementRegistry = "playback_registry"
)

// PlaybackSample summarizes one play watched in one session
type PlaybackSample struct {
	Session       string
	PlayID        string
	PlaybackSpeed float64
	LoopMode      bool
	Frames        int
	Dropped       int
	Completed     bool
	Duration      time.Duration // wall time spent on the play
	Time          time.Time
}

// SessionPoint converts a sample into a playback_session point
func SessionPoint(s PlaybackSample) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementSession).
		AddTag("session", s.Session).
		AddTag("play_id", s.PlayID).
		AddTag("loop", boolTag(s.LoopMode)).
		AddField("speed", s.PlaybackSpeed).
		AddField("frames", s.Frames).
		AddField("dropped", s.Dropped).
		AddField("completed", s.Completed).
		AddField("duration_ms", s.Duration.Milliseconds()).
		SetTime(s.Time)
}

// RegistrySample is a snapshot of all open sessions
type RegistrySample struct {
	Sessions int
	Playing  int
	Dropped  int
	Time     time.Time
}

// RegistryPoint converts a sample into a playback_registry point
func RegistryPoint(s RegistrySample) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementRegistry).
		AddField("sessions", s.Sessions).
		AddField("playing", s.Playing).
		AddField("dropped_frames", s.Dropped).
		SetTime(s.Time)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
