package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gridironlab/playbook/internal/api"
	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/internal/storage/factory"
	"github.com/gridironlab/playbook/internal/storage/memory"
	"github.com/gridironlab/playbook/internal/timing"
)

func initStorage() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	backend, err := factory.NewBackend(storageCfg, Logger, DBLogger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return nil, err
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, nil
}

func closeStorage(backend storage.Backend) {
	if err := backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
}

func apiClient() *api.Client {
	return api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
}

func printTimings(playIDs []string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)

	speedFps := config.GetAnimationConfig().SpeedFps
	out := make(map[string]timing.LoadPlayPayload, len(playIDs))
	for _, id := range playIDs {
		play, err := backend.GetPlay(context.Background(), id)
		if err != nil {
			return err
		}
		out[id] = timing.BuildLoadPlayPayload(*play, speedFps)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func importPlaybook(path string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)

	if mem, ok := backend.(*memory.Backend); ok {
		n, err := mem.ImportJSON(path)
		if err != nil {
			return err
		}
		Logger.Info("Imported playbook", "file", path, "plays", n)
		return nil
	}

	file, err := memory.ReadPlaybookFile(path)
	if err != nil {
		return err
	}
	for i := range file.Plays {
		if err := backend.SavePlay(context.Background(), &file.Plays[i]); err != nil {
			return fmt.Errorf("play %s: %w", file.Plays[i].ID, err)
		}
	}
	Logger.Info("Imported playbook", "file", path, "playbook", file.PlaybookID, "plays", len(file.Plays))
	return nil
}

func exportPlaybook(playbookID, path string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)
	return exportTo(backend, playbookID, path)
}

func exportTo(backend storage.Backend, playbookID, path string) error {
	plays, err := backend.ListPlays(context.Background(), playbookID)
	if err != nil {
		return err
	}
	if len(plays) == 0 {
		return fmt.Errorf("playbook %q: %w", playbookID, storage.ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = memory.WritePlaybookFile(path, memory.PlaybookFile{
		Version:    memory.FileVersion,
		PlaybookID: playbookID,
		ExportedAt: time.Now().UTC(),
		Plays:      plays,
	})
	if err != nil {
		return err
	}
	Logger.Info("Exported playbook", "playbook", playbookID, "plays", len(plays), "file", path)
	return nil
}

func fetchPlaybook(playbookID string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)

	client := apiClient()
	if err := client.Healthcheck(); err != nil {
		return fmt.Errorf("content service unavailable: %w", err)
	}

	plays, err := client.ListPlays(context.Background(), playbookID)
	if err != nil {
		return err
	}
	for i := range plays {
		if plays[i].PlaybookID == "" {
			plays[i].PlaybookID = playbookID
		}
		if err := backend.SavePlay(context.Background(), &plays[i]); err != nil {
			return fmt.Errorf("play %s: %w", plays[i].ID, err)
		}
	}
	Logger.Info("Fetched playbook", "playbook", playbookID, "plays", len(plays))
	return nil
}

func uploadPlaybook(playbookID string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)

	dir, err := os.MkdirTemp("", "playbook-upload")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, playbookID+".json.gz")
	if err := exportTo(backend, playbookID, path); err != nil {
		return err
	}
	if err := apiClient().UploadPlaybook(path, playbookID); err != nil {
		return err
	}
	Logger.Info("Uploaded playbook", "playbook", playbookID)
	return nil
}
