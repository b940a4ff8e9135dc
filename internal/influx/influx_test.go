package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/playbook/internal/config"
)

func unreachableConfig() config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "playbook",
		Bucket:   "playback",
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), filepath.Join(t.TempDir(), "backup.gz"))
	assert.Error(t, m.Connect(context.Background()))
}

func TestServerURL(t *testing.T) {
	m := NewManager(unreachableConfig(), zerolog.Nop(), "")
	assert.Equal(t, "http://127.0.0.1:1", m.ServerURL())
}

func TestBackupWhenUnreachable(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "telemetry.lp.gz")
	m := NewManager(unreachableConfig(), zerolog.Nop(), backup)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Record(SessionPoint(PlaybackSample{
		Session:       "viewer",
		PlayID:        "dig",
		PlaybackSpeed: 1.5,
		Frames:        120,
		Completed:     true,
		Duration:      2 * time.Second,
		Time:          at,
	}))
	m.Record(RegistryPoint(RegistrySample{Sessions: 2, Playing: 1, Time: at}))
	assert.Equal(t, 2, m.Pending())

	n, err := m.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, m.Pending())
	require.NoError(t, m.Close())

	lines := readBackup(t, backup)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "playback_session,"), lines[0])
	assert.Contains(t, lines[0], "play_id=dig")
	assert.Contains(t, lines[0], "frames=120i")
	assert.Contains(t, lines[0], "completed=true")
	assert.Contains(t, lines[0], "duration_ms=2000i")
	assert.True(t, strings.HasPrefix(lines[1], "playback_registry "), lines[1])
	assert.Contains(t, lines[1], "sessions=2i")
}

func TestFlush_NoOutput(t *testing.T) {
	m := NewManager(unreachableConfig(), zerolog.Nop(), "")
	m.Record(RegistryPoint(RegistrySample{Time: time.Now()}))

	_, err := m.Flush()
	assert.Error(t, err)
	assert.Equal(t, 1, m.Pending(), "unwritten points stay buffered")
}

func TestStartFlushesPeriodically(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "telemetry.lp.gz")
	m := NewManager(unreachableConfig(), zerolog.Nop(), backup)
	require.NoError(t, m.Connect(context.Background()))

	m.Start(10 * time.Millisecond)
	m.Record(RegistryPoint(RegistrySample{Sessions: 1, Time: time.Now()}))

	assert.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Close())
	assert.Len(t, readBackup(t, backup), 1)
}

func TestRecordBounded(t *testing.T) {
	m := NewManager(unreachableConfig(), zerolog.Nop(), "")
	for i := 0; i < maxPending+5; i++ {
		m.Record(RegistryPoint(RegistrySample{Time: time.Now()}))
	}
	assert.Equal(t, maxPending, m.Pending())
	assert.Equal(t, 5, m.Dropped())
}
