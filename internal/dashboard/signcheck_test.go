package dashboard

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bybitdash/internal/signer"
)

var testCreds = signer.NewCredentials("test-key", "test-secret")

func TestSignCheckWithCredentials(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, testCreds)

	rec := do(t, h, http.MethodPost, "/api/sign-check", `{"query":{"accountType":"UNIFIED"}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"hasApiKey": true,
		"hasApiSecret": true,
		"recvWindow": "5000",
		"sampleSignature": "3f10586267639c9f3f4f5e32e491a6ef80d157db06f51eb79e4988e24f97adba",
		"note": "Signature generated on the server."
	}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "test-secret")
}

func TestSignCheckEmptyBodyMeansEmptyQuery(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, testCreds)

	for _, body := range []string{"", "{}", `{"query":null}`, `{"query":{}}`, `{"query":""}`, `{"query":0}`} {
		rec := do(t, h, http.MethodPost, "/api/sign-check", body)

		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		assert.Equal(t, "d8d5e71d8f986368aa5c13405f059ab6adb4f41df59d2f11bb056226b63457d6", decodeBody(t, rec)["sampleSignature"], "body %q", body)
	}
}

func TestSignCheckWithoutCredentials(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, signer.Credentials{})

	for _, body := range []string{"", `{"query":{"accountType":"UNIFIED"}}`} {
		rec := do(t, h, http.MethodPost, "/api/sign-check", body)

		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		assert.JSONEq(t, `{
			"hasApiKey": false,
			"hasApiSecret": false,
			"recvWindow": "5000",
			"sampleSignature": null,
			"note": "No API keys found in the server environment."
		}`, rec.Body.String(), "body %q", body)
	}
}

func TestSignCheckWithKeyButNoSecret(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, signer.NewCredentials("only-key", ""))

	rec := do(t, h, http.MethodPost, "/api/sign-check", `{"query":{"a":"1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"hasApiKey": true,
		"hasApiSecret": false,
		"recvWindow": "5000",
		"sampleSignature": null,
		"note": "No API keys found in the server environment."
	}`, rec.Body.String())
}

func TestSignCheckMatchesSignerForQueryValues(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, testCreds)

	rec := do(t, h, http.MethodPost, "/api/sign-check", `{"query":{"symbol":"BTC USDT","limit":50,"flag":true,"ids":["1","2"]}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	want, err := signer.Sign(testNow.UnixMilli(), "symbol=BTC+USDT&limit=50&flag=true&ids=1&ids=2", "5000", testCreds)
	require.NoError(t, err)
	assert.Equal(t, want, decodeBody(t, rec)["sampleSignature"])
}

func TestSignCheckBadJSON(t *testing.T) {
	h := newTestServer(t, testConfig(t), &fakeExchange{}, testCreds)

	for _, body := range []string{`{"query":`, `not json`, `[1,2]`, `null`, `{"query":"abc"}`, `{"query":{"nested":{"a":1}}}`} {
		rec := do(t, h, http.MethodPost, "/api/sign-check", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"error":"Bad JSON body"}`, rec.Body.String())
	}
}

func TestReadSignCheckQueryKeepsOrder(t *testing.T) {
	q, err := readSignCheckQuery(strings.NewReader(`{"query":{"z":"1","a":"2","m":"3"}}`))

	require.NoError(t, err)
	assert.Equal(t, "z=1&a=2&m=3", q.Encode())
}
