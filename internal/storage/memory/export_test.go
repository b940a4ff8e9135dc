package memory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.SavePlay(context.Background(), testPlay("p1", "Red Zone")))

	path, err := b.ExportJSON("Red Zone")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Red_Zone.json"), path)
	assert.Equal(t, path, b.LastExportPath())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var file PlaybookFile
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, FileVersion, file.Version)
	assert.Equal(t, "Red Zone", file.PlaybookID)
	require.Len(t, file.Plays, 1)
	assert.Equal(t, "p1", file.Plays[0].ID)
}

func TestExportJSON_Compressed(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	require.NoError(t, b.SavePlay(context.Background(), testPlay("p1", "book")))

	path, err := b.ExportJSON("book")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json.gz"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var file PlaybookFile
	require.NoError(t, json.NewDecoder(gz).Decode(&file))
	assert.Len(t, file.Plays, 1)
}

func TestImportJSON_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		src := New(config.MemoryConfig{OutputDir: dir, CompressOutput: compress})
		ctx := context.Background()
		for _, id := range []string{"b", "a"} {
			require.NoError(t, src.SavePlay(ctx, testPlay(id, "book")))
		}
		path, err := src.ExportJSON("book")
		require.NoError(t, err)

		dst := New(config.MemoryConfig{})
		n, err := dst.ImportJSON(path)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		plays, err := dst.ListPlays(ctx, "book")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, storage.PlaylistIDs(plays))

		want, _ := src.GetPlay(ctx, "a")
		got, _ := dst.GetPlay(ctx, "a")
		assert.Equal(t, want, got)
	}
}

func TestReadPlaybookFile_InheritsPlaybookID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"playbookId":"book","plays":[{"id":"p"}]}`), 0644))

	file, err := ReadPlaybookFile(path)
	require.NoError(t, err)
	assert.Equal(t, "book", file.Plays[0].PlaybookID)
}

func TestReadPlaybookFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		errText string
	}{
		{"missing", "none.json", "", "failed to open file"},
		{"bad json", "bad.json", "{", "failed to decode"},
		{"bad gzip", "bad.json.gz", "plain", "gzip"},
		{"future version", "v9.json", `{"version":9}`, "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			}
			_, err := ReadPlaybookFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestImportJSON_InvalidPlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"plays":[{"id":"ok"},{"name":"no id"}]}`), 0644))

	b := New(config.MemoryConfig{})
	n, err := b.ImportJSON(path)
	assert.ErrorIs(t, err, storage.ErrInvalidPlay)
	assert.Equal(t, 1, n)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a_b_c_d", sanitizeFileName("a b:c/d"))
}

func TestPlaybookFile_YAML(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"book.yaml", "book.yml.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			want := *testPlay("p1", "book")
			require.NoError(t, WritePlaybookFile(path, PlaybookFile{
				Version:    FileVersion,
				PlaybookID: "book",
				Plays:      []core.Play{want},
			}))

			file, err := ReadPlaybookFile(path)
			require.NoError(t, err)
			assert.Equal(t, "book", file.PlaybookID)
			require.Len(t, file.Plays, 1)
			assert.Equal(t, want, file.Plays[0])
		})
	}
}

func TestReadPlaybookFile_HandWrittenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slant.yaml")
	doc := `version: 1
playbookId: red-zone
plays:
  - id: slant
    name: Slant
    players:
      - id: wr
        x: 10
        y: 0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	file, err := ReadPlaybookFile(path)
	require.NoError(t, err)
	require.Len(t, file.Plays, 1)
	assert.Equal(t, "red-zone", file.Plays[0].PlaybookID)
	assert.Equal(t, "Slant", file.Plays[0].Name)
	assert.Equal(t, 10.0, file.Plays[0].Players[0].X)
}
