package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/logging"
	"github.com/gridironlab/playbook/internal/storage/memory"
	"github.com/gridironlab/playbook/pkg/core"
)

func setupTest(t *testing.T) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	_ = config.Load(dir) // no config file, defaults only
	viper.Set("storage.type", "sqlite")
	viper.Set("storage.sqlite.path", filepath.Join(dir, "plays.db"))
	viper.Set("storage.sqlite.dumpPath", "")

	var buf bytes.Buffer
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(&buf, "error", nil)
	Logger = SlogManager.Logger()
	DBLogger = logging.NewZerolog(&buf, "error", "database")
	return dir
}

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "in.json")
	err := memory.WritePlaybookFile(path, memory.PlaybookFile{
		Version:    memory.FileVersion,
		PlaybookID: "red-zone",
		Plays: []core.Play{
			{ID: "fade", Name: "Fade", Players: []core.Player{{ID: "wr", X: 10}}},
			{ID: "slant", Name: "Slant", Players: []core.Player{{ID: "wr", X: 10}}},
		},
	})
	require.NoError(t, err)
	return path
}

func TestRun_ArgumentValidation(t *testing.T) {
	setupTest(t)

	tests := []struct {
		command string
		args    []string
	}{
		{"timings", nil},
		{"play", nil},
		{"import", nil},
		{"export", []string{"only-one"}},
		{"fetch", nil},
		{"upload", []string{"a", "b"}},
		{"bogus", nil},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Error(t, run(tt.command, tt.args))
		})
	}
}

func TestImportExport(t *testing.T) {
	dir := setupTest(t)
	in := writeFixture(t, dir)

	require.NoError(t, run("import", []string{in}))

	out := filepath.Join(dir, "out", "red-zone.json.gz")
	require.NoError(t, run("export", []string{"red-zone", out}))

	file, err := memory.ReadPlaybookFile(out)
	require.NoError(t, err)
	assert.Equal(t, "red-zone", file.PlaybookID)
	require.Len(t, file.Plays, 2)
	assert.Equal(t, "fade", file.Plays[0].ID)
	assert.Equal(t, "slant", file.Plays[1].ID)
}

func TestExport_UnknownPlaybook(t *testing.T) {
	dir := setupTest(t)
	assert.Error(t, run("export", []string{"nope", filepath.Join(dir, "x.json")}))
}

func TestTimings_UnknownPlay(t *testing.T) {
	setupTest(t)
	assert.Error(t, run("timings", []string{"missing"}))
}
