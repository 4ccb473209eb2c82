package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPConfig configures an HTTPPayout.
type HTTPConfig struct {
	// Endpoint receives a JSON-encoded Payment via POST.
	Endpoint string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	// Token, when set, is sent as a bearer token.
	Token string `json:"token" mapstructure:"token" yaml:"token"`
	// MaxRetries bounds retry attempts after the first request.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`
	// RetryDelay is the minimum wait between attempts.
	RetryDelay time.Duration `json:"retry_delay" mapstructure:"retry_delay" yaml:"retry_delay"`
}

// DefaultHTTPConfig returns the default HTTP payout settings.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// HTTPPayout settles payments through an external HTTP endpoint. Any
// non-2xx response after retries is a failed payout.
type HTTPPayout struct {
	endpoint *url.URL
	token    string
	client   *retryablehttp.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPPayout.
type HTTPOption func(*HTTPPayout)

// WithHTTPLogger sets the logger used for request and retry logging.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPPayout) {
		h.logger = logger
		h.client.Logger = logger
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPPayout) {
		h.client.HTTPClient = c
	}
}

// NewHTTPPayout creates an HTTPPayout for cfg.Endpoint.
func NewHTTPPayout(cfg HTTPConfig, opts ...HTTPOption) (*HTTPPayout, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("treasury: parse endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("treasury: endpoint %q must be an absolute URL", cfg.Endpoint)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.RetryDelay
	client.RetryWaitMax = 2 * cfg.RetryDelay
	client.Backoff = retryablehttp.LinearJitterBackoff
	client.CheckRetry = retryablehttp.DefaultRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	h := &HTTPPayout{
		endpoint: endpoint,
		token:    cfg.Token,
		client:   client,
		logger:   slog.Default(),
	}
	client.Logger = h.logger

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Pay implements Payout.
func (h *HTTPPayout) Pay(ctx context.Context, p Payment) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("treasury: encode payment: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("treasury: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.Reference)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("treasury: payout %s: %w", p.Reference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort diagnostic body
		return fmt.Errorf("%w: %s returned %d: %s", ErrPayoutRejected, h.endpoint.Redacted(), resp.StatusCode, bytes.TrimSpace(msg))
	}

	h.logger.Info("payout settled",
		"reference", p.Reference,
		"to", p.To.Hex(),
		"amount", p.Amount.String(),
	)
	return nil
}
