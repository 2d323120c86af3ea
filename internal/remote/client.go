// Package remote talks to the external register persistence service.
//
// The service stores each register as a whole collection per owner and
// exposes a separate endpoint for attachment uploads. Client implements
// core.Storage and core.Uploader on top of it. Calls are never retried:
// the caller decides whether to try again.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/eprregister/internal/core"
	"github.com/go-resty/resty/v2"
)

const (
	registerPath = "/registers/{kind}/{ownerID}"
	uploadPath   = "/uploads"
)

// Config holds the connection settings for the persistence service.
type Config struct {
	BaseURL string
	APIKey  string // Sent as a bearer token when set
	Timeout time.Duration
}

// RemoteError is returned when the service answers but does not confirm.
type RemoteError struct {
	Op      string // "fetch", "save" or "upload"
	Status  int    // HTTP status code
	Message string // Message reported by the service, if any
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote service %s failed (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("remote service %s failed (status %d): %s", e.Op, e.Status, e.Message)
}

// ErrMissingURL is returned by the upload call when the service confirms
// but returns no reference for the stored file.
var ErrMissingURL = errors.New("upload response has no file reference")

// Client is the persistence service client.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c}
}

type rowsEnvelope struct {
	Rows []core.Row `json:"rows"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// Fetch returns the stored collection of one register for one owner.
// A 404 is an empty register, not an error.
func (c *Client) Fetch(ctx context.Context, kind, ownerID string) ([]core.Row, error) {
	var out rowsEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"kind": kind, "ownerID": ownerID}).
		SetResult(&out).
		Get(registerPath)
	if err != nil {
		return nil, fmt.Errorf("fetch register %s: %w", kind, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return []core.Row{}, nil
	}
	if resp.IsError() {
		return nil, &RemoteError{Op: "fetch", Status: resp.StatusCode(), Message: errorMessage(resp)}
	}

	slog.Debug("register fetched", "register", kind, "owner_id", ownerID, "rows", len(out.Rows))
	return out.Rows, nil
}

// Save replaces the stored collection. The service must answer with
// success:true; anything else is a RemoteError.
func (c *Client) Save(ctx context.Context, kind, ownerID string, rows []core.Row) error {
	if rows == nil {
		rows = []core.Row{}
	}
	var out saveResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"kind": kind, "ownerID": ownerID}).
		SetHeader("Content-Type", "application/json").
		SetBody(rowsEnvelope{Rows: rows}).
		SetResult(&out).
		Post(registerPath)
	if err != nil {
		return fmt.Errorf("save register %s: %w", kind, err)
	}
	if resp.IsError() {
		return &RemoteError{Op: "save", Status: resp.StatusCode(), Message: errorMessage(resp)}
	}
	if !out.Success {
		return &RemoteError{Op: "save", Status: resp.StatusCode(), Message: out.Message}
	}
	return nil
}

// Upload stores one attachment and returns its persisted reference.
func (c *Client) Upload(ctx context.Context, file core.PendingFile, rowIndex int) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"rowIndex": strconv.Itoa(rowIndex)}).
		SetResult(&uploadResponse{})
	if file.ContentType != "" {
		req.SetMultipartField("file", file.Name, file.ContentType, bytes.NewReader(file.Data))
	} else {
		req.SetFileReader("file", file.Name, bytes.NewReader(file.Data))
	}

	resp, err := req.Post(uploadPath)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Name, err)
	}
	if resp.IsError() {
		return "", &RemoteError{Op: "upload", Status: resp.StatusCode(), Message: errorMessage(resp)}
	}

	out := resp.Result().(*uploadResponse)
	if !out.Success {
		return "", &RemoteError{Op: "upload", Status: resp.StatusCode(), Message: out.Message}
	}
	if out.Data.ImageURL == "" {
		return "", fmt.Errorf("upload %s: %w", file.Name, ErrMissingURL)
	}
	return out.Data.ImageURL, nil
}

// errorMessage extracts the service's message from an error response body,
// falling back to the raw body.
func errorMessage(resp *resty.Response) string {
	var body saveResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(resp.String())
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
