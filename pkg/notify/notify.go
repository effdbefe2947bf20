// Package notify reports run completion to an external HTTP endpoint.
//
// The report carries the validation outcome: overall success, the
// artifacts produced, and the missing-artifact findings. Endpoints are
// expected to respond with a 2xx status; anything else is an error so
// callers can surface undelivered reports.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a report request when the config does not set one.
const DefaultTimeout = 30 * time.Second

// ErrRejected indicates the endpoint answered with a non-2xx status.
var ErrRejected = errors.New("notify: report rejected")

// Artifact is one produced deliverable named in the report.
type Artifact struct {
	Label string   `json:"label"`
	Kind  string   `json:"kind"`
	Paths []string `json:"paths"`
}

// Report is the completion payload posted to the endpoint.
type Report struct {
	RunID     string     `json:"run_id"`
	Name      string     `json:"name,omitempty"`
	Success   bool       `json:"success"`
	Artifacts []Artifact `json:"artifacts"`
	Errors    string     `json:"errors,omitempty"`
}

// Client posts completion reports.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a report client for the given endpoint URL.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("notify: endpoint url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("notify: unsupported endpoint url %q", url)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Send posts the report as JSON.
func (c *Client) Send(ctx context.Context, report *Report) error {
	if report == nil {
		return errors.New("notify: report is nil")
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("notify: marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded slice of the body for the error message.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s (%s)", ErrRejected, resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}
