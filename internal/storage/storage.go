// Package storage talks to the Supabase Storage REST API. Every source and
// exported media file crosses this boundary; nothing assumes a local copy.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StatusError is returned when the storage API answers with a non-2xx code.
type StatusError struct {
	Op     string
	Object string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storage %s %s failed with status %d: %s", e.Op, e.Object, e.Code, e.Body)
}

// Client is a storage bucket client.
type Client struct {
	baseURL string
	bucket  string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for bucket. baseURL is the Storage API root,
// e.g. https://<ref>.supabase.co/storage/v1.
func NewClient(baseURL, bucket, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

func (c *Client) objectURL(parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, "object")
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/" + path.Join(escaped...)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}

// Upload stores r as a new object and returns its id. Ids are generated,
// so an upload never replaces an existing object.
func (c *Client) Upload(ctx context.Context, r io.Reader, contentType, ext string) (string, error) {
	objectID := uuid.NewString()
	if ext != "" {
		objectID += "." + strings.TrimPrefix(ext, ".")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(c.bucket, objectID), r)
	if err != nil {
		return "", errors.Wrap(err, "error creating upload request")
	}
	c.authorize(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("x-upsert", "false")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "error uploading %s", objectID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError("upload", objectID, resp)
	}
	return objectID, nil
}

// DownloadURL returns the public URL of an object.
func (c *Client) DownloadURL(objectID string) string {
	return c.objectURL("public", c.bucket, objectID)
}

// Download opens an object for reading. The caller closes the body.
func (c *Client) Download(ctx context.Context, objectID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(c.bucket, objectID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating download request")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error downloading %s", objectID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError("download", objectID, resp)
	}
	return resp.Body, nil
}

func statusError(op, objectID string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Object: objectID, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// ContentType returns the MIME type for an export container format.
func ContentType(format string) string {
	switch format {
	case "mov":
		return "video/quicktime"
	case "webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
