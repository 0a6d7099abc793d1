// Package client is the Go counterpart of the browser frontend: it picks
// the sync or streaming path by submission size, consumes the push-event
// stream and enforces its own overall deadline.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/corrigo/corrigo/internal/core/domain"
)

const (
	// DefaultSyncThreshold is the submission length above which the client
	// switches to the streaming path.
	DefaultSyncThreshold = 5000

	// DefaultStreamTimeout caps one streamed correction end to end.
	DefaultStreamTimeout = 5 * time.Minute
)

// ErrStreamTimeout reports that the stream ceiling elapsed before a
// terminal event arrived.
var ErrStreamTimeout = errors.New("correction stream timed out")

// ProgressHandler receives intermediate stream events.
type ProgressHandler func(stage, detail string)

type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	syncThreshold int
	streamTimeout time.Duration
}

type Option func(*Client)

func WithSyncThreshold(n int) Option {
	return func(c *Client) { c.syncThreshold = n }
}

func WithStreamTimeout(d time.Duration) Option {
	return func(c *Client) { c.streamTimeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		logger:        logger,
		syncThreshold: DefaultSyncThreshold,
		streamTimeout: DefaultStreamTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correct runs a correction, choosing sync or streaming transport by
// submission size. onProgress may be nil.
func (c *Client) Correct(ctx context.Context, content, customInstructions string, onProgress ProgressHandler) (*domain.CorrectionResult, error) {
	if len(content) <= c.syncThreshold {
		return c.correctSync(ctx, content, customInstructions)
	}
	return c.correctStream(ctx, content, customInstructions, onProgress)
}

type correctionRequest struct {
	Content            string `json:"content"`
	CustomInstructions string `json:"customInstructions,omitempty"`
}

func (c *Client) correctSync(ctx context.Context, content, customInstructions string) (*domain.CorrectionResult, error) {
	body, err := json.Marshal(correctionRequest{Content: content, CustomInstructions: customInstructions})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/correction/correct", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.CategoryNetwork, "correction request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeErrorResponse(resp)
	}

	var result domain.CorrectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) correctStream(ctx context.Context, content, customInstructions string, onProgress ProgressHandler) (*domain.CorrectionResult, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, c.streamTimeout, ErrStreamTimeout)
	defer cancel()

	endpoint, err := c.startAsync(ctx, content, customInstructions)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, streamErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewError(domain.CategoryUpstream,
			fmt.Sprintf("stream endpoint returned HTTP %d", resp.StatusCode), "")
	}

	result, err := c.consumeStream(resp.Body, onProgress)
	if err != nil {
		return nil, streamErr(ctx, err)
	}
	return result, nil
}

// streamErr surfaces the timeout cause when the stream ceiling cut the
// connection; other transport failures pass through as-is.
func streamErr(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrStreamTimeout) {
		return ErrStreamTimeout
	}
	return err
}

func (c *Client) startAsync(ctx context.Context, content, customInstructions string) (string, error) {
	body, err := json.Marshal(correctionRequest{Content: content, CustomInstructions: customInstructions})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/correction-sse/start-async", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewError(domain.CategoryNetwork, "failed to start correction", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeErrorResponse(resp)
	}

	var started struct {
		ID             string `json:"id"`
		StreamEndpoint string `json:"streamEndpoint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return "", fmt.Errorf("decode start response: %w", err)
	}
	if started.StreamEndpoint == "" {
		return "", fmt.Errorf("start response carries no stream endpoint")
	}
	return started.StreamEndpoint, nil
}

// consumeStream reads SSE frames until a terminal event. A progress event
// that fails to parse is logged and skipped; a terminal event that fails to
// parse ends the correction with an error.
func (c *Client) consumeStream(body io.Reader, onProgress ProgressHandler) (*domain.CorrectionResult, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64<<10), 4<<20)

	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if event == "" {
				continue
			}
			result, done, err := c.dispatchEvent(event, data, onProgress)
			if done {
				return result, err
			}
			event, data = "", ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, fmt.Errorf("stream closed before a terminal event")
}

func (c *Client) dispatchEvent(event, data string, onProgress ProgressHandler) (*domain.CorrectionResult, bool, error) {
	switch event {
	case "start":
		if onProgress != nil {
			onProgress("start", "")
		}
	case "progress":
		var p struct {
			Stage  string `json:"stage"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			c.logger.Warn("skipping malformed progress event", "error", err)
			return nil, false, nil
		}
		if onProgress != nil {
			onProgress(p.Stage, p.Detail)
		}
	case "complete":
		var result domain.CorrectionResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, true, fmt.Errorf("decode completion event: %w", err)
		}
		return &result, true, nil
	case "error":
		var p struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, true, fmt.Errorf("decode error event: %w", err)
		}
		return nil, true, domain.NewError(domain.CategoryUpstream, p.Message, "")
	default:
		c.logger.Warn("skipping unknown event", "event", event)
	}
	return nil, false, nil
}

// decodeErrorResponse rebuilds a classified error from the server's JSON
// error shape and status code.
func decodeErrorResponse(resp *http.Response) error {
	var payload struct {
		Error      string `json:"error"`
		Details    string `json:"details"`
		Suggestion string `json:"suggestion"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		return domain.NewError(categoryForStatus(resp.StatusCode),
			fmt.Sprintf("server returned HTTP %d", resp.StatusCode), strings.TrimSpace(string(raw)))
	}
	msg := payload.Error
	if payload.Details != "" {
		msg = payload.Details
	}
	return domain.NewError(categoryForStatus(resp.StatusCode), msg, payload.Suggestion)
}

func categoryForStatus(status int) domain.ErrorCategory {
	switch status {
	case http.StatusBadRequest:
		return domain.CategoryBadRequest
	case http.StatusUnauthorized:
		return domain.CategoryAuth
	case http.StatusForbidden:
		return domain.CategoryForbidden
	case http.StatusNotFound:
		return domain.CategoryNotFound
	case http.StatusTooManyRequests:
		return domain.CategoryRateLimit
	case http.StatusBadGateway:
		return domain.CategoryUpstream
	case http.StatusGatewayTimeout:
		return domain.CategoryTimeout
	default:
		return domain.CategoryInternal
	}
}
