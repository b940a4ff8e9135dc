package influx

import (
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/playbook/internal/playback"
)

type pointSlice []*influxdb2_write.Point

func (p *pointSlice) Record(pt *influxdb2_write.Point) { *p = append(*p, pt) }

func fieldValue(t *testing.T, pt *influxdb2_write.Point, key string) any {
	t.Helper()
	for _, f := range pt.FieldList() {
		if f.Key == key {
			return f.Value
		}
	}
	t.Fatalf("field %s not found", key)
	return nil
}

func tagValue(pt *influxdb2_write.Point, key string) string {
	for _, tag := range pt.TagList() {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

func TestTracker_CompletedPlay(t *testing.T) {
	var points pointSlice
	tr := NewTracker("viewer", &points)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tr.Observe(playback.Frame{PlayID: "dig", Phase: playback.PhaseReady, PlaybackSpeed: 1}, start)
	tr.Observe(playback.Frame{PlayID: "dig", Phase: playback.PhaseExecution, PlaybackSpeed: 2}, start.Add(time.Second))
	tr.Observe(playback.Frame{PlayID: "dig", Phase: playback.PhaseComplete, PlaybackSpeed: 2}, start.Add(2*time.Second))

	require.Len(t, points, 1)
	pt := points[0]
	assert.Equal(t, MeasurementSession, pt.Name())
	assert.Equal(t, "dig", tagValue(pt, "play_id"))
	assert.Equal(t, "viewer", tagValue(pt, "session"))
	assert.Equal(t, int64(3), fieldValue(t, pt, "frames"))
	assert.Equal(t, true, fieldValue(t, pt, "completed"))
	assert.Equal(t, 2.0, fieldValue(t, pt, "speed"))
	assert.Equal(t, int64(2000), fieldValue(t, pt, "duration_ms"))

	tr.Observe(playback.Frame{PlayID: "dig", Phase: playback.PhaseComplete}, start.Add(3*time.Second))
	tr.Finish(start.Add(3*time.Second), 0)
	assert.Len(t, points, 1, "nothing pending after completion")

	tr.Observe(playback.Frame{PlayID: "dig", Phase: playback.PhaseExecution}, start.Add(4*time.Second))
	tr.Finish(start.Add(5*time.Second), 0)
	assert.Len(t, points, 2, "replaying starts a new sample")
}

func TestTracker_SwitchAndFinish(t *testing.T) {
	var points pointSlice
	tr := NewTracker("viewer", &points)
	now := time.Now()

	tr.Observe(playback.Frame{PlayID: "a", Phase: playback.PhaseExecution}, now)
	tr.Observe(playback.Frame{PlayID: "b", Phase: playback.PhaseReady}, now)
	require.Len(t, points, 1)
	assert.Equal(t, "a", tagValue(points[0], "play_id"))
	assert.Equal(t, false, fieldValue(t, points[0], "completed"))

	tr.Finish(now, 4)
	require.Len(t, points, 2)
	assert.Equal(t, "b", tagValue(points[1], "play_id"))
	assert.Equal(t, int64(4), fieldValue(t, points[1], "dropped"))
}
