// Package backend talks to the analysis service: submitting scenarios,
// resolving its base address and probing its health.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/soyeahso/somc/internal/version"
)

// maxErrorBody caps how much of a failed response is kept on a TransportError.
const maxErrorBody = 4 << 10

// TransportError describes a submission that did not produce a 2xx response.
type TransportError struct {
	URL    string
	Status int    // 0 when no response was received
	Body   string // truncated response body, if any
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("POST %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("POST %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed: network failures,
// timeouts, 429 and 5xx.
func (e *TransportError) Temporary() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Submitter issues one analysis request. *Client implements it.
type Submitter interface {
	Submit(ctx context.Context, req domain.AnalysisRequest) ([]byte, error)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	SubmitPath string
	HealthPath string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is the HTTP client for the analysis backend.
type Client struct {
	baseURL    string
	submitPath string
	healthPath string
	http       *http.Client
	log        *logging.Logger
}

// NewClient creates a backend client.
func NewClient(opts Options, log *logging.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if opts.SubmitPath == "" {
		opts.SubmitPath = "/api/input_task"
	}
	if opts.HealthPath == "" {
		opts.HealthPath = "/health"
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		submitPath: opts.SubmitPath,
		healthPath: opts.HealthPath,
		http:       hc,
		log:        log.Sub("backend"),
	}
}

// BaseURL returns the backend address the client submits to.
func (c *Client) BaseURL() string { return c.baseURL }

// Submit posts req exactly once. A 2xx response yields its body; every other
// outcome is a *TransportError.
func (c *Client) Submit(ctx context.Context, req domain.AnalysisRequest) ([]byte, error) {
	url := c.baseURL + c.submitPath

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("session", req.SessionID).Msg("submission failed")
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	c.log.Debug().
		Str("session", req.SessionID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("submission answered")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &TransportError{
			URL:    url,
			Status: resp.StatusCode,
			Body:   string(body),
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}
	return body, nil
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) ProbeResult {
	return Probe(ctx, c.http, c.baseURL, c.healthPath)
}

// HealthPath returns the path Health probes.
func (c *Client) HealthPath() string { return c.healthPath }
