// Package backend is a client for the capture, mood and video backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/go-soundtrack/internal/biometrics"
)

const (
	// DefaultBaseURL is the production backend.
	DefaultBaseURL = "https://htv2025-production.up.railway.app"

	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 30 * time.Second

	userAgent = "soundtrack/1.0"

	mediaPath         = "/api/media/ordered/created-at"
	biometricPath     = "/api/biometric/"
	questionnairePath = "/api/questionnaire"
	videoPath         = "/api/video/generate"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Config holds backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the external backend over JSON/HTTP.
// Calls are never retried; callers decide what a failure means.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client from the provided configuration.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchMedia returns all media items ordered by creation time.
func (c *Client) FetchMedia(ctx context.Context) ([]MediaItem, error) {
	var items []MediaItem
	if err := c.do(ctx, http.MethodGet, mediaPath, nil, &items); err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	if items == nil {
		items = []MediaItem{}
	}
	return items, nil
}

// FetchBiometrics returns the raw biometric records. Records that cannot be
// decoded are logged and skipped so one bad record does not hide the rest.
func (c *Client) FetchBiometrics(ctx context.Context) ([]biometrics.Record, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, biometricPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetching biometrics: %w", err)
	}

	records := make([]biometrics.Record, 0, len(raw))
	for i, item := range raw {
		var r biometrics.Record
		if err := json.Unmarshal(item, &r); err != nil {
			log.Printf("backend: skipping biometric record %d: %v", i, err)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// SubmitQuestionnaire posts the day's check-in answers.
func (c *Client) SubmitQuestionnaire(ctx context.Context, pairs []QAPair) error {
	body := questionnaireRequest{QAPairs: pairs}
	if err := c.do(ctx, http.MethodPost, questionnairePath, body, nil); err != nil {
		return fmt.Errorf("submitting questionnaire: %w", err)
	}
	return nil
}

// GenerateVideo asks the backend to assemble a video from the given media.
func (c *Client) GenerateVideo(ctx context.Context, mediaIDs []string) (*VideoResult, error) {
	var result VideoResult
	if err := c.do(ctx, http.MethodPost, videoPath, videoRequest{MediaIDs: mediaIDs}, &result); err != nil {
		return nil, fmt.Errorf("generating video: %w", err)
	}
	return &result, nil
}

// do performs a single request. A nil in skips the body, a nil out skips decoding.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
