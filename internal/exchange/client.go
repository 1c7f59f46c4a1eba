// Package exchange performs signed read-only calls against the Bybit v5 REST
// API and classifies every failure into an Error kind.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	bybit "github.com/bybit-exchange/bybit.go.api"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"bybitdash/config"
	"bybitdash/internal/metrics"
	"bybitdash/internal/signer"
	"bybitdash/logger"
	"bybitdash/models"
)

const (
	EndpointWalletBalance = "/v5/account/wallet-balance"
	EndpointPositionList  = "/v5/position/list"
	EndpointTickers       = "/v5/market/tickers"
	EndpointOrderBook     = "/v5/market/orderbook"
)

// Client issues authenticated GET requests. It is safe for concurrent use.
type Client struct {
	baseURL    string
	signer     *signer.Signer
	httpClient *http.Client
	rest       *resty.Client
	public     *bybit.Client
	limiter    *rate.Limiter
	now        func() time.Time
	log        *logger.Log
}

// Option customises a Client.
type Option func(*Client)

// WithClock replaces the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a Client from the Bybit section of the configuration.
func NewClient(cfg config.BybitConfig, log *logger.Log, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		signer:     signer.New(cfg.Credentials(), cfg.RecvWindow),
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rest = resty.NewWithClient(c.httpClient).
		SetLogger(log.WithComponent("bybit_client").Entry).
		SetHeader("Accept", "application/json")

	c.public = bybit.NewBybitHttpClient("", "", bybit.WithBaseURL(c.baseURL))
	c.public.HTTPClient = c.httpClient

	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		burst := cfg.RateLimit.BurstSize
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	log.WithComponent("bybit_client").WithFields(logger.Fields{
		"base_url":    c.baseURL,
		"recv_window": cfg.RecvWindow,
		"timeout":     cfg.Timeout.String(),
		"has_api_key": c.signer.Credentials().HasKey(),
		"rate_limit":  cfg.RateLimit.RequestsPerSecond,
	}).Info("bybit client initialized")

	return c
}

// Signer exposes the signer the client authenticates with.
func (c *Client) Signer() *signer.Signer {
	return c.signer
}

// Get performs a signed GET of endpoint with query and returns the envelope's
// result member. The query string on the wire is exactly the one signed.
func (c *Client) Get(ctx context.Context, endpoint string, query signer.Query) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.get(ctx, endpoint, query)
	c.observe(endpoint, time.Since(start), err)
	return result, err
}

func (c *Client) get(ctx context.Context, endpoint string, query signer.Query) (json.RawMessage, error) {
	if !c.signer.Credentials().Complete() {
		return nil, credentialsMissing(endpoint)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, Endpoint: endpoint, Message: "rate limiter wait failed", Err: err}
		}
	}

	req, err := c.signer.SignRequest(endpoint, query, signer.Millis(c.now()))
	if err != nil {
		return nil, credentialsMissing(endpoint)
	}

	target := c.baseURL + endpoint
	if qs := req.QueryString(); qs != "" {
		target += "?" + qs
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(req.Headers()).
		Get(target)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Endpoint: endpoint, Message: "Bybit request failed", Err: err}
	}

	metrics.ReportUsage(c.log, resp.Header(), endpoint)

	return decodeEnvelope(endpoint, resp.Body())
}

func decodeEnvelope(endpoint string, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &Error{Kind: KindProtocol, Endpoint: endpoint, Message: "Bybit response is not a JSON object"}
	}

	var env models.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &Error{Kind: KindProtocol, Endpoint: endpoint, Message: "Bybit response is not valid JSON", Err: err}
	}

	if !env.Succeeded() {
		return nil, remoteError(endpoint, env.RetMsg.String())
	}

	result := bytes.TrimSpace(env.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(result), nil
}

func (c *Client) observe(endpoint string, duration time.Duration, err error) {
	outcome := "ok"
	entry := c.log.WithComponent("bybit_client").WithField("endpoint", endpoint)

	var exErr *Error
	if errors.As(err, &exErr) {
		outcome = exErr.Kind.String()
		entry = entry.WithField("kind", outcome)
		switch exErr.Kind {
		case KindCredentialsMissing:
			entry.Debug("bybit credentials missing; request not sent")
		case KindTransport:
			entry.WithError(err).Warn("bybit request failed")
		case KindProtocol:
			entry.WithError(err).Warn("bybit returned an unexpected body")
		case KindRemote:
			entry.WithField("message", exErr.Message).Warn("bybit rejected request")
			metrics.ReportLimitFromMessage(c.log, endpoint, exErr.Message)
		}
	}

	metrics.ObserveExchangeRequest(endpoint, outcome, duration)
	logger.LogPerformanceEntry(entry, "bybit_client", "api_request", duration, logger.Fields{"outcome": outcome})
}

// WalletBalance fetches the unified account wallet balance.
func (c *Client) WalletBalance(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, EndpointWalletBalance, signer.NewQuery("accountType", "UNIFIED"))
}

// PositionList fetches USDT-settled linear positions.
func (c *Client) PositionList(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, EndpointPositionList, signer.NewQuery("category", "linear", "settleCoin", "USDT"))
}

// Tickers fetches all linear tickers.
func (c *Client) Tickers(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, EndpointTickers, signer.NewQuery("category", "linear"))
}
