package signer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testTimestamp int64 = 1700000000000

func testCreds() Credentials {
	return NewCredentials("test-key", "test-secret")
}

func mustSign(t *testing.T, ts int64, query, recvWindow string, creds Credentials) string {
	t.Helper()
	sig, err := Sign(ts, query, recvWindow, creds)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return sig
}

func TestSignKnownVector(t *testing.T) {
	sig := mustSign(t, testTimestamp, "accountType=UNIFIED", "5000", testCreds())
	if sig != "3f10586267639c9f3f4f5e32e491a6ef80d157db06f51eb79e4988e24f97adba" {
		t.Fatalf("unexpected signature: %s", sig)
	}
}

func TestSignEmptyQueryOmitsSegment(t *testing.T) {
	sig := mustSign(t, testTimestamp, "", "5000", testCreds())
	if sig != "d8d5e71d8f986368aa5c13405f059ab6adb4f41df59d2f11bb056226b63457d6" {
		t.Fatalf("unexpected signature: %s", sig)
	}
	if got := Payload(testTimestamp, "test-key", "5000", ""); got != "1700000000000test-key5000" {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestSignDeterministic(t *testing.T) {
	first := mustSign(t, testTimestamp, "category=linear", "5000", testCreds())
	second := mustSign(t, testTimestamp, "category=linear", "5000", testCreds())
	if first != second {
		t.Fatalf("signatures differ: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestSignChangesWithEachInput(t *testing.T) {
	base := mustSign(t, testTimestamp, "category=linear", "5000", testCreds())

	cases := map[string]struct {
		ts         int64
		query      string
		recvWindow string
		creds      Credentials
	}{
		"timestamp":   {testTimestamp + 1, "category=linear", "5000", testCreds()},
		"query":       {testTimestamp, "category=inverse", "5000", testCreds()},
		"recv window": {testTimestamp, "category=linear", "5001", testCreds()},
		"api key":     {testTimestamp, "category=linear", "5000", NewCredentials("test-kez", "test-secret")},
		"secret":      {testTimestamp, "category=linear", "5000", NewCredentials("test-key", "test-secreu")},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if sig := mustSign(t, tc.ts, tc.query, tc.recvWindow, tc.creds); sig == base {
				t.Fatalf("signature did not change")
			}
		})
	}
}

func TestSignWithoutSecret(t *testing.T) {
	_, err := Sign(testTimestamp, "", "5000", NewCredentials("test-key", ""))
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestSignRequestHeaders(t *testing.T) {
	s := New(testCreds(), "5000")

	req, err := s.SignRequest("/v5/account/wallet-balance", NewQuery("accountType", "UNIFIED"), testTimestamp)
	if err != nil {
		t.Fatalf("SignRequest failed: %v", err)
	}
	if got := req.QueryString(); got != "accountType=UNIFIED" {
		t.Fatalf("unexpected query string: %s", got)
	}

	want := map[string]string{
		HeaderAPIKey:     "test-key",
		HeaderTimestamp:  "1700000000000",
		HeaderRecvWindow: "5000",
		HeaderSignature:  "3f10586267639c9f3f4f5e32e491a6ef80d157db06f51eb79e4988e24f97adba",
	}
	headers := req.Headers()
	for name, value := range want {
		if headers[name] != value {
			t.Errorf("header %s = %q, want %q", name, headers[name], value)
		}
	}
}

func TestMillisIsUTC(t *testing.T) {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	loc := time.FixedZone("UTC+3", 3*60*60)

	if got := Millis(ts); got != testTimestamp {
		t.Fatalf("unexpected millis: %d", got)
	}
	if got := Millis(ts.In(loc)); got != testTimestamp {
		t.Fatalf("millis depend on location: %d", got)
	}
}

func TestCredentialsString(t *testing.T) {
	c := NewCredentials("abcdefgh", "supersecret")
	if !c.Complete() {
		t.Fatal("expected complete credentials")
	}
	if s := c.String(); strings.Contains(s, "supersecret") || strings.Contains(s, "abcdefgh") {
		t.Fatalf("credentials leaked: %s", s)
	}

	empty := NewCredentials("", "")
	if empty.HasKey() || empty.HasSecret() || empty.Complete() {
		t.Fatalf("expected empty credentials, got %s", empty)
	}
}
