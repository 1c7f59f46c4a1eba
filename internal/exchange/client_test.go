package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bybitdash/config"
	"bybitdash/internal/signer"
	"bybitdash/logger"
)

var fixedNow = time.UnixMilli(1700000000000).UTC()

func testConfig(baseURL string) config.BybitConfig {
	return config.BybitConfig{
		BaseURL:    baseURL,
		RecvWindow: "5000",
		Timeout:    2 * time.Second,
		APIKey:     "test-key",
		APISecret:  "test-secret",
	}
}

func newTestClient(t *testing.T, cfg config.BybitConfig) *Client {
	t.Helper()
	return NewClient(cfg, logger.GetLogger(), WithClock(func() time.Time { return fixedNow }))
}

func TestGetSignsExactWireQuery(t *testing.T) {
	var gotQuery string
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointWalletBalance, r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Clone()
		w.Header().Set("X-Bapi-Limit", "50")
		w.Header().Set("X-Bapi-Limit-Status", "49")
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[]}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, testConfig(srv.URL))
	result, err := client.WalletBalance(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `{"list":[]}`, string(result))
	assert.Equal(t, "accountType=UNIFIED", gotQuery)
	assert.Equal(t, "test-key", gotHeader.Get(signer.HeaderAPIKey))
	assert.Equal(t, "1700000000000", gotHeader.Get(signer.HeaderTimestamp))
	assert.Equal(t, "5000", gotHeader.Get(signer.HeaderRecvWindow))
	assert.Equal(t, "3f10586267639c9f3f4f5e32e491a6ef80d157db06f51eb79e4988e24f97adba", gotHeader.Get(signer.HeaderSignature))
}

func TestGetPreservesQueryOrder(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"retCode":0,"result":{}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, testConfig(srv.URL))
	_, err := client.PositionList(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "category=linear&settleCoin=USDT", gotQuery)
}

func TestGetWithoutCredentialsSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APISecret = ""
	client := newTestClient(t, cfg)

	_, err := client.Tickers(context.Background())

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, KindCredentialsMissing, exErr.Kind)
	assert.Equal(t, "Bybit API keys are not configured. Set BYBIT_API_KEY and BYBIT_API_SECRET.", exErr.Error())
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestGetRemoteError(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"non-zero", `{"retCode":10003,"retMsg":"API key is invalid."}`, "Bybit API error: API key is invalid."},
		{"empty message", `{"retCode":10003,"retMsg":""}`, "Bybit API error: Unknown error"},
		{"missing retCode", `{"retMsg":"OK","result":{}}`, "Bybit API error: OK"},
		{"string retCode", `{"retCode":"0","result":{}}`, "Bybit API error: Unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, testConfig(srv.URL)).Tickers(context.Background())

			var exErr *Error
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, KindRemote, exErr.Kind)
			assert.Equal(t, tc.want, exErr.Error())
			assert.Equal(t, EndpointTickers, exErr.Endpoint)
		})
	}
}

func TestGetProtocolError(t *testing.T) {
	for _, body := range []string{`<html>bad gateway</html>`, `[1,2]`, `{"retCode":0`, ``, `null`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestClient(t, testConfig(srv.URL)).Tickers(context.Background())
		srv.Close()

		var exErr *Error
		require.ErrorAs(t, err, &exErr, "body %q", body)
		assert.Equal(t, KindProtocol, exErr.Kind, "body %q", body)
	}
}

func TestGetMissingResultIsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK"}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, testConfig(srv.URL)).Tickers(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(result))
}

func TestGetTransportErrorOnClosedServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, testConfig(url)).Tickers(context.Background())

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, KindTransport, exErr.Kind)
	assert.NotNil(t, errors.Unwrap(exErr))
}

func TestGetTransportErrorOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	_, err := newTestClient(t, cfg).Tickers(context.Background())

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, KindTransport, exErr.Kind)
}

func TestRateLimiterCancelledContextIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"result":{}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}
	client := newTestClient(t, cfg)

	_, err := client.Tickers(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Tickers(ctx)

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, KindTransport, exErr.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "credentials_missing", KindCredentialsMissing.String())
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "remote", KindRemote.String())
	assert.Equal(t, "kind(0)", Kind(0).String())
}
