package gh

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingCredential indicates no token was supplied; no network call is made.
var ErrMissingCredential = errors.New("missing credential")

// MalformedRefError indicates a repository identifier that could not be
// split into a non-empty owner/name pair.
type MalformedRefError struct {
	Input string
}

func (e *MalformedRefError) Error() string {
	return fmt.Sprintf("malformed repository ref %q: want \"owner/name\"", e.Input)
}

// RateLimitError is the local short-circuit raised when the tracked
// remaining-call count is exhausted and the reset time has not passed.
// The client does not wait or retry; callers decide what to do with Reset.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exhausted, resets at %s", e.Reset.Format(time.RFC3339))
}

// RequestError is a non-success HTTP response from the remote API.
// Message is the parsed error body, falling back to the HTTP status text.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("remote request failed: %d %s", e.StatusCode, e.Message)
}

// TransportError is a network-level failure where no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
