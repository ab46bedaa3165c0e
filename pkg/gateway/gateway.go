// Package gateway is the stateless request/response boundary to the
// backend. It normalizes the three remote failure axes (transport, non-2xx
// status, envelope-reported failure) into the taxonomy in errors.go and
// never lets a panic or raw decoding error cross into the session layer.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Caller is the gateway contract the session components depend on.
// It exists so balance/history/directory tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, endpoint string, payload any) (*Response, error)
}

// Response is the unwrapped backend envelope.
type Response struct {
	// Data is the envelope's data field as-is. The gateway does not
	// interpret domain fields.
	Data json.RawMessage

	// Body is the entire response body, for endpoints that carry
	// domain fields as siblings of data (e.g. history's current_balance).
	Body json.RawMessage
}

// envelope is the backend's standard response shape.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Config holds gateway configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.example.com".
	BaseURL string

	// Timeout bounds one request round trip.
	Timeout time.Duration

	// BreakerInterval is the closed-state counter-reset period.
	BreakerInterval time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration

	// ConsecutiveFailures trips the breaker when reached.
	ConsecutiveFailures uint32
}

// DefaultConfig returns sensible defaults for a mobile-grade backend.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		Timeout:             15 * time.Second,
		BreakerInterval:     60 * time.Second,
		BreakerTimeout:      30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("gateway: base URL is required")
	}
	return nil
}

// Client implements Caller over HTTP POST JSON with circuit breaking.
type Client struct {
	config  Config
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	metrics metrics.Collector
	logger  *logging.Logger
}

// NewClient creates a gateway client.
func NewClient(config Config) (*Client, error) {
	return NewClientWithMetrics(config, metrics.NoOpCollector{})
}

// NewClientWithMetrics creates a gateway client with a custom collector.
func NewClientWithMetrics(config Config, collector metrics.Collector) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ConsecutiveFailures == 0 {
		config.ConsecutiveFailures = 5
	}

	logger := logging.L().Named("gateway")

	c := &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		metrics: collector,
		logger:  logger,
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "gateway",
		Interval: config.BreakerInterval,
		Timeout:  config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			var state metrics.CircuitState
			switch to {
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			default:
				state = metrics.CircuitClosed
			}
			c.metrics.RecordCircuitState(state)
		},
	})

	return c, nil
}

// Call posts the payload to endpoint and unwraps the envelope.
// Only transport-axis failures count against the circuit breaker; a
// backend that answers with an application error is healthy transport.
func (c *Client) Call(ctx context.Context, endpoint string, payload any) (*Response, error) {
	start := time.Now()

	resp, err := c.call(ctx, endpoint, payload)

	duration := time.Since(start)
	outcome := ClassifyOutcome(err)
	c.metrics.RecordGatewayCall(endpoint, outcome, duration)

	if err != nil {
		c.logger.Debug("call failed",
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", duration),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("call succeeded",
		zap.String("endpoint", endpoint),
		zap.Duration("elapsed", duration),
	)
	return resp, nil
}

func (c *Client) call(ctx context.Context, endpoint string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrDataShape, err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")

	raw, cbErr := c.cb.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, url, body)
	})
	if cbErr != nil {
		if cbErr == gobreaker.ErrOpenState || cbErr == gobreaker.ErrTooManyRequests {
			return nil, ErrCircuitOpen
		}
		return nil, cbErr
	}

	respBody := raw.([]byte)

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrDataShape, err)
	}
	if env.Status == "" {
		return nil, fmt.Errorf("%w: envelope missing status", ErrDataShape)
	}
	if !strings.EqualFold(env.Status, "success") {
		return nil, &ApplicationError{Endpoint: endpoint, Message: env.Message}
	}

	return &Response{Data: env.Data, Body: respBody}, nil
}

// roundTrip performs the HTTP exchange. Errors returned here count as
// circuit breaker failures.
func (c *Client) roundTrip(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http status %d", ErrTransport, resp.StatusCode)
	}

	return respBody, nil
}
