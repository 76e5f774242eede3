// Package retrieval talks to the external vector search collaborator. The
// service's ranking internals are opaque: the client sends question text and
// gets back ranked passages with citation metadata.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/physai/textbook-backend/internal/config"
)

var ErrCircuitOpen = errors.New("retrieval circuit open")

// Passage is one ranked snippet of textbook content.
type Passage struct {
	Text    string  `json:"text"`
	Chapter string  `json:"chapter"`
	Section string  `json:"section"`
	Score   float64 `json:"score"`
}

// Client wraps the vector search HTTP API with timeout, retries, and a
// circuit breaker, mirroring the generation client.
type Client struct {
	cfg    config.RetrievalConfig
	client *http.Client

	failures  int32
	openUntil int64 // unix nano
}

func NewClient(cfg config.RetrievalConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	logger.Info("retrieval: NewClient created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return &Client{cfg: cfg, client: httpClient}, nil
}

// package-level logger for pkg/retrieval; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/retrieval. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

type searchRequest struct {
	Query          string  `json:"query"`
	Limit          int     `json:"limit"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type searchResponse struct {
	Results []Passage `json:"results"`
}

// Search sends the question text to the vector search service and returns
// the ranked passages. Retrieval is never personalized: identical queries
// produce identical rankings regardless of the caller.
func (c *Client) Search(ctx context.Context, query string) ([]Passage, error) {
	var lastErr error
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	body, err := json.Marshal(searchRequest{Query: query, Limit: c.cfg.TopK, ScoreThreshold: c.cfg.ScoreThreshold})
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		passages, err := c.searchOnce(ctx, body)
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			return passages, nil
		}

		lastErr = err
		c.recordFailure()

		time.Sleep(c.cfg.Backoff * time.Duration(attempt+1))
		if c.isCircuitOpen() {
			return nil, ErrCircuitOpen
		}
	}

	return nil, fmt.Errorf("search failed after retries: %w", lastErr)
}

func (c *Client) searchOnce(ctx context.Context, body []byte) ([]Passage, error) {
	ctxReq, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	u := base.ResolveReference(&url.URL{Path: "/search"})

	req, err := http.NewRequestWithContext(ctxReq, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	return sr.Results, nil
}

// Health issues an empty-bounds search to verify the service responds.
func (c *Client) Health(ctx context.Context) error {
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}

	ctxReq, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return err
	}
	u := base.ResolveReference(&url.URL{Path: "/health"})

	req, err := http.NewRequestWithContext(ctxReq, http.MethodGet, u.String(), nil)
	if err != nil {
		c.recordFailure()
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure()
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	atomic.StoreInt32(&c.failures, 0)
	return nil
}
