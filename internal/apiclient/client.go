// Package apiclient talks to the processor's HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"

	"videothingy/internal/db"
	"videothingy/models"
)

// ErrNotFound is returned for a 404 on anything other than a project.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response carrying the API's error envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Client calls the /api/v1 endpoints of a processor.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the processor at baseURL, e.g.
// http://localhost:8080.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/") + "/api/v1", http: httpClient}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s %s (status %d)", method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Code: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(env.Data, out), "failed to decode response data")
}

func projectPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID)
}

func notFound(err error, sentinel error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return errors.Wrap(sentinel, apiErr.Message)
	}
	return err
}

// GetProject fetches a project record.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := c.do(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return nil, notFound(err, db.ErrProjectNotFound)
	}
	return &p, nil
}

// SubmitExport queues an export of req.ProjectID.
func (c *Client) SubmitExport(ctx context.Context, req models.ExportRequest) (*models.ExportAck, error) {
	var ack models.ExportAck
	if err := c.do(ctx, http.MethodPost, projectPath(req.ProjectID)+"/export", req, &ack); err != nil {
		return nil, notFound(err, db.ErrProjectNotFound)
	}
	return &ack, nil
}

// GenerateCaptions queues caption generation and returns the job id.
func (c *Client) GenerateCaptions(ctx context.Context, projectID string) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(ctx, http.MethodPost, projectPath(projectID)+"/captions", nil, &out); err != nil {
		return "", notFound(err, db.ErrProjectNotFound)
	}
	return out.JobID, nil
}

// Job fetches a job's state.
func (c *Client) Job(ctx context.Context, id string) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return &job, nil
}

// DownloadFile fetches rawURL into dest.
func (c *Client) DownloadFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create download request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Code: resp.StatusCode, Message: "download failed"}
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return errors.Wrapf(err, "failed to write %s", dest)
	}
	return f.Close()
}
