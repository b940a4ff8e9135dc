// Package api is the HTTP client for the play content service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/pkg/core"
)

// Client handles communication with the play content service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the content service is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// GetPlay fetches the animation content of a play.
func (c *Client) GetPlay(ctx context.Context, id string) (*core.Play, error) {
	var play core.Play
	if err := c.getJSON(ctx, "/api/plays/"+url.PathEscape(id), &play); err != nil {
		return nil, fmt.Errorf("play %q: %w", id, err)
	}
	if play.ID == "" {
		play.ID = id
	}
	return &play, nil
}

// ListPlays fetches the plays of a playbook in playbook order.
func (c *Client) ListPlays(ctx context.Context, playbookID string) ([]core.Play, error) {
	var plays []core.Play
	if err := c.getJSON(ctx, "/api/playbooks/"+url.PathEscape(playbookID)+"/plays", &plays); err != nil {
		return nil, fmt.Errorf("playbook %q: %w", playbookID, err)
	}
	return plays, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps a response status to the storage sentinel errors.
func statusError(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return storage.ErrUnauthorized
	case http.StatusForbidden:
		return storage.ErrForbidden
	case http.StatusNotFound:
		return storage.ErrNotFound
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

// UploadPlaybook sends an exported playbook file to the content service.
func (c *Client) UploadPlaybook(filePath, playbookID string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer writer.Close()

		_ = writer.WriteField("secret", c.apiKey)
		_ = writer.WriteField("filename", filepath.Base(filePath))
		_ = writer.WriteField("playbookId", playbookID)

		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			errCh <- fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			errCh <- fmt.Errorf("failed to copy file: %w", err)
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/playbooks/import", pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	// a rejected upload may abort the body mid-write, so status wins
	if err := statusError(resp.StatusCode); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return <-errCh
}
