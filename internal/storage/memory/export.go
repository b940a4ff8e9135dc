package memory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridironlab/playbook/pkg/core"
)

// FileVersion is the current playbook file format version
const FileVersion = 1

// PlaybookFile is the root JSON structure of an exported playbook
type PlaybookFile struct {
	Version    int         `json:"version"`
	PlaybookID string      `json:"playbookId"`
	ExportedAt time.Time   `json:"exportedAt"`
	Plays      []core.Play `json:"plays"`
}

// ExportJSON writes a playbook to the configured output directory and
// returns the file path.
func (b *Backend) ExportJSON(playbookID string) (string, error) {
	plays, err := b.ListPlays(context.Background(), playbookID)
	if err != nil {
		return "", err
	}

	name := sanitizeFileName(playbookID)
	if name == "" {
		name = "plays"
	}
	filename := name + ".json"
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)
	file := PlaybookFile{
		Version:    FileVersion,
		PlaybookID: playbookID,
		ExportedAt: time.Now().UTC(),
		Plays:      plays,
	}
	if err := WritePlaybookFile(outputPath, file); err != nil {
		return "", err
	}

	b.mu.Lock()
	b.lastExportPath = outputPath
	b.mu.Unlock()
	return outputPath, nil
}

// LastExportPath returns the path written by the last ExportJSON call
func (b *Backend) LastExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// ImportJSON loads a playbook file into the backend and returns the number
// of plays stored.
func (b *Backend) ImportJSON(path string) (int, error) {
	file, err := ReadPlaybookFile(path)
	if err != nil {
		return 0, err
	}
	for i := range file.Plays {
		if err := b.SavePlay(context.Background(), &file.Plays[i]); err != nil {
			return i, fmt.Errorf("play %d: %w", i, err)
		}
	}
	return len(file.Plays), nil
}

// WritePlaybookFile writes file as JSON, or YAML for .yaml/.yml paths,
// gzipped when path ends in .gz
func WritePlaybookFile(path string, file PlaybookFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !isGzip(path) {
		return encode(f, file, isYAML(path))
	}

	gzWriter := gzip.NewWriter(f)
	if err := encode(gzWriter, file, isYAML(path)); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

// ReadPlaybookFile reads a playbook file written by WritePlaybookFile.
// Plays without a playbook ID inherit the file's. Drawings given as a bare
// "polyline" are expanded into chained line segments.
func ReadPlaybookFile(path string) (PlaybookFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return PlaybookFile{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(path) {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return PlaybookFile{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	raw, err := decode(r, isYAML(path))
	if err != nil {
		return PlaybookFile{}, fmt.Errorf("failed to decode playbook file: %w", err)
	}
	var file PlaybookFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return PlaybookFile{}, fmt.Errorf("failed to decode playbook file: %w", err)
	}
	if file.Version > FileVersion {
		return PlaybookFile{}, fmt.Errorf("unsupported playbook file version %d", file.Version)
	}
	if err := expandPolylines(raw, &file); err != nil {
		return PlaybookFile{}, err
	}
	for i := range file.Plays {
		if file.Plays[i].PlaybookID == "" {
			file.Plays[i].PlaybookID = file.PlaybookID
		}
	}
	return file, nil
}

// YAML goes through a generic document so the json tags of core types
// name the keys in both formats.
func encode(w io.Writer, file PlaybookFile, asYAML bool) error {
	if !asYAML {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(file)
	}

	raw, err := json.Marshal(file)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	return encoder.Close()
}

// decode returns the file content as JSON
func decode(r io.Reader, asYAML bool) ([]byte, error) {
	if !asYAML {
		return io.ReadAll(r)
	}

	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

func isYAML(path string) bool {
	path = strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

func sanitizeFileName(name string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")
	return r.Replace(name)
}
