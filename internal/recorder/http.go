package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// maxResponseBytes bounds how much of a recorder response is read.
const maxResponseBytes = 64 << 10

// HTTPClient drives a recorder service over its JSON HTTP API.
//
// Endpoints:
//
//	GET  /api/status     -> {"active":bool,"outputPath":string,"elapsedMs":int}
//	GET  /api/directory  -> {"directory":string}
//	POST /api/record/start
//	POST /api/record/stop
type HTTPClient struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *retryablehttp.Client
	log     *slog.Logger
}

// NewHTTPClient creates a client for the recorder at baseURL. A nil
// logger disables client logging. A zero timeout defaults to 3s.
func NewHTTPClient(baseURL, token string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = 500 * time.Millisecond
	c.Logger = nil // suppress retryablehttp's default logging

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  c,
		log:     log,
	}
}

type statusResponse struct {
	Active     bool   `json:"active"`
	OutputPath string `json:"outputPath"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

type directoryResponse struct {
	Directory string `json:"directory"`
}

// StartRecording asks the recorder to start. Starting while already
// active is a success no-op.
func (h *HTTPClient) StartRecording(ctx context.Context) error {
	st, err := h.Status(ctx)
	if err != nil {
		return fmt.Errorf("checking recorder status: %w", err)
	}
	if st.Active {
		h.log.Debug("recording already active, start is a no-op")
		return nil
	}
	if err := h.post(ctx, "/api/record/start"); err != nil {
		return fmt.Errorf("starting recording: %w", err)
	}
	return nil
}

// StopRecording asks the recorder to stop. Stopping while inactive is a
// success no-op.
func (h *HTTPClient) StopRecording(ctx context.Context) error {
	st, err := h.Status(ctx)
	if err != nil {
		return fmt.Errorf("checking recorder status: %w", err)
	}
	if !st.Active {
		h.log.Debug("no active recording, stop is a no-op")
		return nil
	}
	if err := h.post(ctx, "/api/record/stop"); err != nil {
		return fmt.Errorf("stopping recording: %w", err)
	}
	return nil
}

// Status fetches the recorder's current state.
func (h *HTTPClient) Status(ctx context.Context) (Status, error) {
	var resp statusResponse
	if err := h.getJSON(ctx, "/api/status", &resp); err != nil {
		return Status{}, err
	}
	return Status{
		Active:     resp.Active,
		OutputPath: resp.OutputPath,
		Elapsed:    time.Duration(resp.ElapsedMs) * time.Millisecond,
	}, nil
}

// RecordingDirectory fetches the directory the recorder writes to.
func (h *HTTPClient) RecordingDirectory(ctx context.Context) (string, error) {
	var resp directoryResponse
	if err := h.getJSON(ctx, "/api/directory", &resp); err != nil {
		return "", err
	}
	return resp.Directory, nil
}

func (h *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	body, err := h.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (h *HTTPClient) post(ctx context.Context, path string) error {
	_, err := h.do(ctx, http.MethodPost, path)
	return err
}

func (h *HTTPClient) do(ctx context.Context, method, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}

var _ Recorder = (*HTTPClient)(nil)
