package connection

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyClosed    = errors.New("already closed")
	ErrHandshakeTimeout = errors.New("handshake timeout")
)

// Auth failure codes in the upstream taxonomy.
const (
	CodeUnauthorized    = 401 // invalid credentials
	CodeAuthFailed      = 402 // invalid credentials
	CodeConnectionLimit = 406 // too many concurrent connections
	CodeNotEntitled     = 409 // subscription tier lacks entitlement
	CodeTooManySymbols  = 413 // subscription request too large
)

// AuthError is an error frame returned during the authentication handshake.
type AuthError struct {
	Code int
	Msg  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth rejected (code %d): %s", e.Code, e.Msg)
}

// Credentials identify the caller to upstream endpoints. They are resolved
// by an external collaborator (the config layer) and passed by value.
type Credentials struct {
	Key    string
	Secret string
}

// authRequest is the in-band authentication command.
type authRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// subscribeRequest is the symbol-based subscription command for market-data
// endpoints.
type subscribeRequest struct {
	Action string   `json:"action"`
	Trades []string `json:"trades"`
	Quotes []string `json:"quotes"`
	Bars   []string `json:"bars"`
}

// listenRequest is the stream-listen command for the account endpoint.
type listenRequest struct {
	Action string     `json:"action"`
	Data   listenData `json:"data"`
}

type listenData struct {
	Streams []string `json:"streams"`
}

// authorizationData is the payload of an authorization envelope on the
// account endpoint.
type authorizationData struct {
	Status string `json:"status"` // "authorized" or "unauthorized"
	Action string `json:"action"`
}

// TimestampedMessage wraps raw message data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL            string
	ConnectTimeout time.Duration // WebSocket handshake deadline
	WriteTimeout   time.Duration // Write deadline for sends
	PingInterval   time.Duration // Keepalive ping cadence
	BufferSize     int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   5 * time.Second,
		PingInterval:   25 * time.Second,
		BufferSize:     4096,
	}
}

// HandshakeConfig bounds the probe/handshake waits. The greeting wait is
// deliberately shorter than the auth wait: absence of a greeting is
// tolerated, absence of an auth result is not.
type HandshakeConfig struct {
	GreetingWait time.Duration
	AuthWait     time.Duration
}

// DefaultHandshakeConfig returns sensible defaults.
func DefaultHandshakeConfig() HandshakeConfig {
	return HandshakeConfig{
		GreetingWait: 5 * time.Second,
		AuthWait:     10 * time.Second,
	}
}

// FailureReason maps a handshake failure to the human-readable reason
// surfaced in the usability report.
func FailureReason(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		switch authErr.Code {
		case CodeUnauthorized, CodeAuthFailed:
			return "invalid credentials"
		case CodeConnectionLimit:
			return "connection limit"
		case CodeNotEntitled:
			return "entitlement"
		default:
			return fmt.Sprintf("auth failed (code %d)", authErr.Code)
		}
	}
	if errors.Is(err, ErrHandshakeTimeout) {
		return "handshake timeout"
	}
	return "connection rejected"
}
