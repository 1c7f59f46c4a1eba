// Package signer builds the HMAC-SHA256 signatures required by the Bybit v5
// REST API.
//
// The signature base is timestamp + apiKey + recvWindow + queryString, keyed
// with the API secret and rendered as lowercase hex. The query string must be
// byte-for-byte the one sent on the wire.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Header names carrying the signed request material.
const (
	HeaderAPIKey     = "X-BAPI-API-KEY"
	HeaderTimestamp  = "X-BAPI-TIMESTAMP"
	HeaderRecvWindow = "X-BAPI-RECV-WINDOW"
	HeaderSignature  = "X-BAPI-SIGN"
)

// ErrMissingSecret is returned when signing is attempted without a secret.
var ErrMissingSecret = errors.New("signer: api secret is not configured")

// Payload returns the signature base string. An empty query contributes
// nothing, so the base is then timestamp + apiKey + recvWindow.
func Payload(timestamp int64, apiKey, recvWindow, query string) string {
	return strconv.FormatInt(timestamp, 10) + apiKey + recvWindow + query
}

// Sign computes the lowercase hex HMAC-SHA256 of the signature base using the
// credentials' secret.
func Sign(timestamp int64, query, recvWindow string, creds Credentials) (string, error) {
	if !creds.HasSecret() {
		return "", ErrMissingSecret
	}
	mac := hmac.New(sha256.New, creds.Secret)
	mac.Write([]byte(Payload(timestamp, creds.Key, recvWindow, query)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Millis converts t to integer milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// Signer signs requests with a fixed key pair and recv-window.
type Signer struct {
	creds      Credentials
	recvWindow string
}

// New returns a Signer for the given credentials and recv-window.
func New(creds Credentials, recvWindow string) *Signer {
	return &Signer{creds: creds, recvWindow: recvWindow}
}

// Credentials returns the key pair the signer was built with.
func (s *Signer) Credentials() Credentials {
	return s.creds
}

// RecvWindow returns the configured recv-window in milliseconds.
func (s *Signer) RecvWindow() string {
	return s.recvWindow
}

// Sign signs an already encoded query string.
func (s *Signer) Sign(timestamp int64, query string) (string, error) {
	return Sign(timestamp, query, s.recvWindow, s.creds)
}

// SignedRequest is a request whose signature covers exactly Timestamp,
// APIKey, RecvWindow and the encoded Query. Changing any of them
// invalidates Signature.
type SignedRequest struct {
	Endpoint   string
	Query      Query
	APIKey     string
	Timestamp  int64
	RecvWindow string
	Signature  string
}

// SignRequest builds a SignedRequest for endpoint and query at timestamp.
func (s *Signer) SignRequest(endpoint string, query Query, timestamp int64) (SignedRequest, error) {
	sig, err := s.Sign(timestamp, query.Encode())
	if err != nil {
		return SignedRequest{}, err
	}
	return SignedRequest{
		Endpoint:   endpoint,
		Query:      query,
		APIKey:     s.creds.Key,
		Timestamp:  timestamp,
		RecvWindow: s.recvWindow,
		Signature:  sig,
	}, nil
}

// QueryString returns the canonical query string that was signed.
func (r SignedRequest) QueryString() string {
	return r.Query.Encode()
}

// Headers returns the authentication headers for the request.
func (r SignedRequest) Headers() map[string]string {
	return map[string]string{
		HeaderAPIKey:     r.APIKey,
		HeaderTimestamp:  strconv.FormatInt(r.Timestamp, 10),
		HeaderRecvWindow: r.RecvWindow,
		HeaderSignature:  r.Signature,
	}
}
