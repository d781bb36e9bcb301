// Package transcribe is a client for the AssemblyAI transcription API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"videothingy/internal/poll"
	"videothingy/models"
)

// ErrTranscriptionFailed is returned when the service reports an error status.
var ErrTranscriptionFailed = errors.New("transcription failed")

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 400
)

// Client submits media for transcription and waits for the words.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	PollInterval time.Duration
	MaxAttempts  int
	Sleep        func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		http:         httpClient,
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	req.Header.Set("authorization", c.apiKey)
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "error decoding %s response", path)
	}
	return nil
}

// Upload sends raw media and returns the URL the service stored it under.
func (c *Client) Upload(ctx context.Context, media io.Reader) (string, error) {
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/upload", media, "application/octet-stream", &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("upload response has no upload_url")
	}
	return out.UploadURL, nil
}

// Submit starts a transcription of audioURL and returns the job id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"audio_url":   audioURL,
		"word_boost":  []string{"video", "content"},
		"format_text": false,
	})
	if err != nil {
		return "", errors.Wrap(err, "error encoding transcript request")
	}

	var out models.Transcript
	if err := c.do(ctx, http.MethodPost, "/transcript", bytes.NewReader(body), "application/json", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("transcript response has no id")
	}
	return out.ID, nil
}

// Get fetches the current state of a transcription job.
func (c *Client) Get(ctx context.Context, id string) (*models.Transcript, error) {
	var out models.Transcript
	if err := c.do(ctx, http.MethodGet, "/transcript/"+id, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wait polls a job until it completes or fails.
func (c *Client) Wait(ctx context.Context, id string) (*models.Transcript, error) {
	opts := poll.Options{
		Interval:    c.PollInterval,
		MaxAttempts: c.MaxAttempts,
		Sleep:       c.Sleep,
	}
	t, err := poll.Retry(ctx, opts,
		func(ctx context.Context) (*models.Transcript, error) { return c.Get(ctx, id) },
		func(t *models.Transcript) bool {
			return t.Status == models.TranscriptStatusCompleted || t.Status == models.TranscriptStatusError
		})
	if err != nil {
		return nil, err
	}
	if t.Status == models.TranscriptStatusError {
		return nil, errors.Wrap(ErrTranscriptionFailed, t.Error)
	}
	return t, nil
}

// Transcribe uploads media, waits for the transcript and returns its words.
func (c *Client) Transcribe(ctx context.Context, media io.Reader) ([]models.TranscriptWord, error) {
	uploadURL, err := c.Upload(ctx, media)
	if err != nil {
		return nil, err
	}
	id, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return nil, err
	}
	t, err := c.Wait(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "transcript %s", id)
	}
	return t.Words, nil
}
