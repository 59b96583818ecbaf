package charthub

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/ratelimit"
)

const (
	// Rate limit: 2 requests per second per endpoint, burst of 4
	defaultRPS   = 2.0
	defaultBurst = 4

	// HTTP client settings
	defaultTimeout = 30 * time.Second
)

// Client is a rate-limited ChartHub API client. It also feeds the
// connectivity monitor: transport failures flip it Offline, any completed
// round trip flips it back Online.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *ratelimit.Keyed
	monitor *connectivity.Monitor
	logger  *slog.Logger
}

// New creates a new ChartHub client for the given base URL.
func New(baseURL string, monitor *connectivity.Monitor, logger *slog.Logger) *Client {
	return NewWithRate(baseURL, defaultRPS, defaultBurst, monitor, logger)
}

// NewWithRate creates a client with a custom per-endpoint rate limit.
func NewWithRate(baseURL string, rps float64, burst int, monitor *connectivity.Monitor, logger *slog.Logger) *Client {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst < 1 {
		burst = defaultBurst
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		limiter: ratelimit.New(rps, burst),
		monitor: monitor,
		logger:  logger,
	}
}

// Probe issues a minimal request to establish the connectivity state. The
// result body is discarded; only the monitor side effect matters.
func (c *Client) Probe(ctx context.Context) {
	// An empty lookup completes without a candidate on a healthy service.
	_, _ = c.GetChart(ctx, "", "")
}

// Close releases resources held by the client.
func (c *Client) Close() {}

// State reports the current connectivity state.
func (c *Client) State() connectivity.State {
	return c.monitor.State()
}

// GetChart resolves the canonical chart record by content checksum and
// filename. A nil Chart with nil error means the service completed the
// lookup without a candidate match (e.g. the checksum was empty); a wrapped
// ErrNotFound means the service authoritatively rejected the lookup.
func (c *Client) GetChart(ctx context.Context, checksum, filename string) (*Chart, error) {
	query := url.Values{}
	if checksum != "" {
		query.Set("checksum", checksum)
	}
	if filename != "" {
		query.Set("filename", filename)
	}

	body, err := c.doRequest(ctx, "lookup", "/api/v1/charts/lookup", query)
	if err != nil {
		return nil, wrapError("lookup", checksum, err)
	}

	// The lookup endpoint returns a JSON null body for a completed lookup
	// with no candidate; decode through a pointer so that maps to nil.
	var raw *rawChart
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError("lookup", checksum, fmt.Errorf("parse response: %w", err))
	}
	if raw == nil {
		return nil, nil
	}
	return raw.toChart(), nil
}

// GetSetTags fetches the set detail record carrying the authoritative tag
// catalog for the set.
func (c *Client) GetSetTags(ctx context.Context, setID int64) (*SetTags, error) {
	key := strconv.FormatInt(setID, 10)

	body, err := c.doRequest(ctx, "setTags", "/api/v1/sets/"+key, url.Values{})
	if err != nil {
		return nil, wrapError("setTags", key, err)
	}

	var raw *rawSetTags
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError("setTags", key, fmt.Errorf("parse response: %w", err))
	}
	if raw == nil {
		return nil, nil
	}
	return raw.toSetTags(), nil
}

// doRequest executes an HTTP request with rate limiting, keyed by operation.
func (c *Client) doRequest(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, op); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ChartStash/1.0")

	c.logger.Debug("charthub request",
		"op", op,
		"path", path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.monitor.SetState(connectivity.Offline)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Any HTTP response means the service is reachable, even a rejection.
	c.monitor.SetState(connectivity.Online)

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
