// Package client provides the Veria Compliance API client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/veriahq/sdk/pkg/core"
	"github.com/veriahq/sdk/pkg/errors"
	"github.com/veriahq/sdk/pkg/metrics"
	"github.com/veriahq/sdk/pkg/screening"
)

const (
	// DefaultBaseURL is the production Veria API endpoint.
	DefaultBaseURL = "https://api.veria.cc"

	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 30 * time.Second

	userAgent = "veria-go-sdk/1.0"
)

// Client is the Veria Compliance API client. It implements core.Screener.
//
// A Client holds immutable configuration and one reusable *http.Client for
// its lifetime, so it is safe for concurrent Screen calls. Each call is
// independent; the SDK imposes no ordering between concurrent screens.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     core.Logger
	collector  metrics.Collector

	closed    atomic.Bool
	closeOnce sync.Once
}

var _ core.Screener = (*Client)(nil)

// Config holds client configuration.
type Config struct {
	// APIKey is the Veria API key. Required.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL is the API base URL. Default: DefaultBaseURL.
	// Trailing slashes are stripped.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// HTTPClient overrides the underlying HTTP client. When set, Timeout is
	// not applied to it; the caller owns its transport configuration.
	HTTPClient *http.Client `yaml:"-" json:"-"`

	// Logger receives debug/warn logging. Default: no logging.
	Logger core.Logger `yaml:"-" json:"-"`

	// Metrics receives client instrumentation. Default: discarded.
	Metrics metrics.Collector `yaml:"-" json:"-"`
}

// DefaultConfig returns default client config.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// New creates a new Veria API client. It performs no network I/O; the first
// request happens on the first Screen call.
//
// An empty API key fails immediately with code MISSING_API_KEY.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required", errors.CodeMissingAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = core.NewNopLogger()
	}

	collector := cfg.Metrics
	if collector == nil {
		collector = &metrics.NopCollector{}
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
		collector:  collector,
	}, nil
}

// =============================================================================
// Functional Options Pattern (AWS SDK style)
// =============================================================================

// Option is a function that configures the client.
type Option func(*Config)

// NewWithOptions creates a new client using functional options.
// Example:
//
//	c, err := client.NewWithOptions(
//	    client.WithAPIKey("veria_live_xxx"),
//	    client.WithTimeout(10 * time.Second),
//	)
func NewWithOptions(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return New(cfg)
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// =============================================================================
// Screen
// =============================================================================

// Screen screens a wallet address, ENS name, or IBAN for compliance risks.
//
// The input is passed to the service verbatim; validation and normalization
// are server-side. Exactly one HTTPS POST is issued per call: no retries,
// no caching. Every failure is surfaced as an *errors.Error.
func (c *Client) Screen(ctx context.Context, input string) (*screening.ScreenResult, error) {
	if c.closed.Load() {
		return nil, errors.New("client is closed", errors.CodeClientClosed)
	}

	requestID := uuid.NewString()
	start := time.Now()

	c.logger.Debug("screening input (request_id=%s)", requestID)

	result, err := c.screen(ctx, input, requestID)
	duration := time.Since(start)

	if err != nil {
		c.collector.CounterInc(metrics.ScreensTotal.Name, "outcome", metrics.OutcomeError, "risk", "")
		c.collector.HistogramObserve(metrics.ScreenDuration.Name, duration.Seconds(), "outcome", metrics.OutcomeError)
		c.logger.Warn("screen failed (request_id=%s): %v", requestID, err)
		return nil, err
	}

	outcome := metrics.OutcomeOK
	if result.ShouldBlock() {
		outcome = metrics.OutcomeBlocked
		c.collector.CounterInc(metrics.ScreensBlocked.Name)
	}
	c.collector.CounterInc(metrics.ScreensTotal.Name, "outcome", outcome, "risk", result.Risk)
	c.collector.HistogramObserve(metrics.ScreenDuration.Name, duration.Seconds(), "outcome", outcome)
	c.collector.HistogramObserve(metrics.ServiceLatency.Name, float64(result.LatencyMS)/1000)

	c.logger.Debug("screen completed (request_id=%s): risk=%s score=%d chain=%s",
		requestID, result.Risk, result.Score, result.Chain)

	return result, nil
}

func (c *Client) screen(ctx context.Context, input string, requestID string) (*screening.ScreenResult, error) {
	body, err := json.Marshal(screening.ScreenRequest{Input: input})
	if err != nil {
		return nil, &errors.Error{
			Message:   fmt.Sprintf("marshal request: %v", err),
			Code:      errors.CodeNetworkError,
			RequestID: requestID,
			Err:       err,
		}
	}

	url := c.baseURL + "/v1/screen"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.Error{
			Message:   fmt.Sprintf("create request: %v", err),
			Code:      errors.CodeNetworkError,
			RequestID: requestID,
			Err:       err,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, requestID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, requestID)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, data, requestID)
	}

	return decodeResult(data, requestID)
}

// transportError maps a transport-level failure to TIMEOUT or NETWORK_ERROR.
// Neither carries an HTTP status: no response was received.
func transportError(err error, requestID string) *errors.Error {
	if isTimeout(err) {
		return &errors.Error{
			Message:   "Request timed out",
			Code:      errors.CodeTimeout,
			RequestID: requestID,
			Err:       err,
		}
	}
	return &errors.Error{
		Message:   err.Error(),
		Code:      errors.CodeNetworkError,
		RequestID: requestID,
		Err:       err,
	}
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// wireErrorBody matches the two documented error body shapes:
// {"error":{"message","code"}} and {"message"}.
type wireErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// apiError builds the error for a non-2xx response. The body is decoded
// leniently: a malformed or unexpected body falls back to a synthesized
// message and REQUEST_FAILED rather than masking the HTTP failure with a
// secondary parse error.
func apiError(status int, body []byte, requestID string) *errors.Error {
	message := fmt.Sprintf("Request failed with status %d", status)
	code := errors.CodeRequestFailed

	var wire wireErrorBody
	if err := json.Unmarshal(body, &wire); err == nil {
		if wire.Error != nil && wire.Error.Message != "" {
			message = wire.Error.Message
		} else if wire.Message != "" {
			message = wire.Message
		}
		if wire.Error != nil && wire.Error.Code != "" {
			code = wire.Error.Code
		}
	}

	return &errors.Error{
		Message:    message,
		Code:       code,
		StatusCode: status,
		RequestID:  requestID,
	}
}

// Pointer fields distinguish absent from zero-valued; every field below is
// required by the contract.
type wireDetails struct {
	SanctionsHit *bool     `json:"sanctions_hit"`
	PEPHit       *bool     `json:"pep_hit"`
	WatchlistHit *bool     `json:"watchlist_hit"`
	CheckedLists *[]string `json:"checked_lists"`
	AddressType  *string   `json:"address_type"`
}

type wireResult struct {
	Score     *int         `json:"score"`
	Risk      *string      `json:"risk"`
	Chain     *string      `json:"chain"`
	Resolved  *string      `json:"resolved"`
	LatencyMS *int64       `json:"latency_ms"`
	Details   *wireDetails `json:"details"`
}

// decodeResult strictly decodes a 2xx body. A missing or mistyped required
// field yields DECODE_ERROR; a partially-populated result is never returned.
func decodeResult(data []byte, requestID string) (*screening.ScreenResult, error) {
	var wire wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &errors.Error{
			Message:   fmt.Sprintf("decode response: %v", err),
			Code:      errors.CodeDecodeError,
			RequestID: requestID,
			Err:       err,
		}
	}

	missing := func(field string) error {
		return &errors.Error{
			Message:   fmt.Sprintf("decode response: missing required field %q", field),
			Code:      errors.CodeDecodeError,
			RequestID: requestID,
		}
	}

	switch {
	case wire.Score == nil:
		return nil, missing("score")
	case wire.Risk == nil:
		return nil, missing("risk")
	case wire.Chain == nil:
		return nil, missing("chain")
	case wire.Resolved == nil:
		return nil, missing("resolved")
	case wire.LatencyMS == nil:
		return nil, missing("latency_ms")
	case wire.Details == nil:
		return nil, missing("details")
	case wire.Details.SanctionsHit == nil:
		return nil, missing("details.sanctions_hit")
	case wire.Details.PEPHit == nil:
		return nil, missing("details.pep_hit")
	case wire.Details.WatchlistHit == nil:
		return nil, missing("details.watchlist_hit")
	case wire.Details.CheckedLists == nil:
		return nil, missing("details.checked_lists")
	case wire.Details.AddressType == nil:
		return nil, missing("details.address_type")
	}

	if !screening.ValidRisk(*wire.Risk) {
		return nil, &errors.Error{
			Message:   fmt.Sprintf("decode response: unknown risk level %q", *wire.Risk),
			Code:      errors.CodeDecodeError,
			RequestID: requestID,
		}
	}

	return &screening.ScreenResult{
		Score:     *wire.Score,
		Risk:      *wire.Risk,
		Chain:     *wire.Chain,
		Resolved:  *wire.Resolved,
		LatencyMS: *wire.LatencyMS,
		Details: screening.ScreenDetails{
			SanctionsHit: *wire.Details.SanctionsHit,
			PEPHit:       *wire.Details.PEPHit,
			WatchlistHit: *wire.Details.WatchlistHit,
			CheckedLists: *wire.Details.CheckedLists,
			AddressType:  *wire.Details.AddressType,
		},
	}, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close releases the underlying connection resources. It is idempotent:
// the connections are released exactly once regardless of how many times
// Close is called. Screening after Close fails fast with CLIENT_CLOSED.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.httpClient.CloseIdleConnections()
		c.logger.Debug("client closed")
	})
	return nil
}

// BaseURL returns the normalized base URL the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
