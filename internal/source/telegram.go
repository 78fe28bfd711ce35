// internal/source/telegram.go
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tendant/photo-ingest/internal/ingest"
)

// Telegram resolves photo file ids through the Telegram Bot API and
// downloads the bytes. A file id that is already an http(s) URL skips
// resolution and is fetched directly. Resolution and transfer share the
// deadline on the caller's context; one attempt, no retries.
type Telegram struct {
	apiURL   string
	botToken string
	client   *http.Client
}

// NewTelegram builds a fetcher against the given Bot API base URL
// (typically https://api.telegram.org). A nil client falls back to
// http.DefaultClient; timeouts are expected to arrive via context.
func NewTelegram(apiURL, botToken string, client *http.Client) *Telegram {
	if client == nil {
		client = http.DefaultClient
	}
	return &Telegram{
		apiURL:   strings.TrimRight(apiURL, "/"),
		botToken: botToken,
		client:   client,
	}
}

type getFileResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// Fetch implements ingest.Fetcher.
func (t *Telegram) Fetch(ctx context.Context, itemID string) (*ingest.Fetched, error) {
	location, err := t.resolve(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}
	return t.download(ctx, location)
}

func (t *Telegram) resolve(ctx context.Context, itemID string) (string, error) {
	if strings.HasPrefix(itemID, "http://") || strings.HasPrefix(itemID, "https://") {
		return itemID, nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", t.apiURL, t.botToken, url.QueryEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("build getFile request: %w", err))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("getFile: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("getFile returned status %d", resp.StatusCode))
	}

	var parsed getFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("decode getFile response: %w", err))
	}
	if !parsed.OK {
		desc := parsed.Description
		if desc == "" {
			desc = "unknown error"
		}
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("telegram api: %s", desc))
	}
	if parsed.Result.FilePath == "" {
		return "", ingest.NewItemError(ingest.KindResolution, fmt.Errorf("telegram api returned empty file_path"))
	}

	return fmt.Sprintf("%s/file/bot%s/%s", t.apiURL, t.botToken, parsed.Result.FilePath), nil
}

func validateLocation(location string) error {
	parsed, err := url.Parse(location)
	if err != nil {
		return ingest.NewItemError(ingest.KindInvalidLocation, fmt.Errorf("parse location: %w", err))
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ingest.NewItemError(ingest.KindInvalidLocation, fmt.Errorf("untrusted location %q", location))
	}
	return nil
}

func (t *Telegram) download(ctx context.Context, location string) (*ingest.Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, ingest.NewItemError(ingest.KindTransfer, fmt.Errorf("build download request: %w", err))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, ingest.NewItemError(ingest.KindTransfer, fmt.Errorf("download: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ingest.NewItemError(ingest.KindTransfer, fmt.Errorf("download returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ingest.NewItemError(ingest.KindTransfer, fmt.Errorf("read body: %w", err))
	}

	return &ingest.Fetched{
		Bytes:       data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
