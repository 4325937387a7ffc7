package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrNotObject        = errors.New("payload must be a JSON object")
	ErrForwardingFailed = errors.New("forwarding failed")
	ErrTransport        = errors.New("transport error")
	// ErrTargetUnreachable marks a navigation that failed at the network level.
	ErrTargetUnreachable = errors.New("target unreachable")
)

type Strategy string

const (
	StrategyBrowser Strategy = "browser"
	StrategyDirect  Strategy = "direct"
)

// Payload holds the raw bytes of a JSON object exactly as the caller sent them.
type Payload json.RawMessage

// ParsePayload accepts data only when it is valid JSON with an object at the top level.
func ParsePayload(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body: %w", ErrInvalidPayload)
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("malformed JSON: %w", ErrInvalidPayload)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrNotObject)
	}
	return Payload(trimmed), nil
}

func (p Payload) String() string {
	return string(p)
}

// ForwardResult is the normalized outcome of the browser relay. Data is
// absent on network and browser errors and a literal null when the target's
// body was not JSON.
type ForwardResult struct {
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

const (
	StatusTextNetworkError = "Network Error"
	StatusTextBrowserError = "Browser Error"
)

func BrowserErrorResult(err error) *ForwardResult {
	return &ForwardResult{
		Status:     500,
		StatusText: StatusTextBrowserError,
		Error:      err.Error(),
	}
}

// DirectResult is the outcome of a direct HTTP forward. Body is nil when the
// target answered with an empty body.
type DirectResult struct {
	StatusCode int
	Body       json.RawMessage
}
