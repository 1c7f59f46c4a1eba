package signer

import "fmt"

// Credentials holds the Bybit API key pair used for authenticated requests.
// An empty Key or Secret means the value is absent and the process runs in
// unauthenticated mode.
type Credentials struct {
	Key    string
	Secret []byte
}

// NewCredentials builds Credentials from the raw key and secret strings.
func NewCredentials(key, secret string) Credentials {
	c := Credentials{Key: key}
	if secret != "" {
		c.Secret = []byte(secret)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c Credentials) HasKey() bool {
	return c.Key != ""
}

// HasSecret reports whether an API secret is configured.
func (c Credentials) HasSecret() bool {
	return len(c.Secret) > 0
}

// Complete reports whether both halves of the key pair are present. Signing
// is only attempted for complete credentials.
func (c Credentials) Complete() bool {
	return c.HasKey() && c.HasSecret()
}

// String returns a redacted representation suitable for logging.
func (c Credentials) String() string {
	redact := func(s string) string {
		if s == "" {
			return "<unset>"
		}
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	secret := "<unset>"
	if c.HasSecret() {
		secret = "****"
	}
	return fmt.Sprintf("Credentials{key=%s, secret=%s}", redact(c.Key), secret)
}
