package exchange

import "fmt"

// Kind classifies why an exchange call failed.
type Kind int

const (
	// KindCredentialsMissing means the key or secret is not configured; no
	// request was sent.
	KindCredentialsMissing Kind = iota + 1
	// KindTransport covers network failures, timeouts and cancellation.
	KindTransport
	// KindProtocol means the body was not a JSON envelope.
	KindProtocol
	// KindRemote means Bybit answered with a non-zero or missing retCode.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindCredentialsMissing:
		return "credentials_missing"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	msgCredentialsMissing = "Bybit API keys are not configured. Set BYBIT_API_KEY and BYBIT_API_SECRET."
	msgUnknownRemote      = "Unknown error"
)

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind     Kind
	Endpoint string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func credentialsMissing(endpoint string) *Error {
	return &Error{Kind: KindCredentialsMissing, Endpoint: endpoint, Message: msgCredentialsMissing}
}

func remoteError(endpoint, retMsg string) *Error {
	if retMsg == "" {
		retMsg = msgUnknownRemote
	}
	return &Error{Kind: KindRemote, Endpoint: endpoint, Message: "Bybit API error: " + retMsg}
}
