package playmusic

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind classifies failures returned by the client.
type ErrorKind int

// Error kinds.
const (
	KindMissingCredentials ErrorKind = iota + 1 // email or password empty
	KindAuthFailure                             // auth endpoint rejected us or returned no token
	KindSettingsFailure                         // settings missing or malformed
	KindNoEligibleDevice                        // no phone or tablet on the account
	KindStreamUnavailable                       // stream endpoint did not redirect
	KindTransport                               // network or connection failure
	KindAPIFailure                              // passthrough endpoint returned an error status
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredentials:
		return "missing credentials"
	case KindAuthFailure:
		return "authentication failed"
	case KindSettingsFailure:
		return "settings unavailable"
	case KindNoEligibleDevice:
		return "no eligible device"
	case KindStreamUnavailable:
		return "stream unavailable"
	case KindTransport:
		return "transport error"
	case KindAPIFailure:
		return "api request failed"
	default:
		return "unknown error"
	}
}

// Error is returned by every client operation.
//
// StatusCode and Body are set when the failure came from an HTTP response;
// Body is truncated to keep error messages readable. Err holds the
// underlying cause, if any.
//
// Use errors.Is with the Err* sentinels to test the kind:
//
//	url, err := client.Stream().URL(ctx, session, "Tabc123")
//	if errors.Is(err, playmusic.ErrNoEligibleDevice) {
//	    // register a phone with the account first
//	}
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Message    string
	Err        error
}

// Error returns the error message.
func (e *Error) Error() string {
	msg := "playmusic: " + e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Temporary returns true for failures a caller may reasonably retry:
// transport errors and 5xx responses. The client itself never retries.
func (e *Error) Temporary() bool {
	if e.Kind == KindTransport {
		return true
	}
	return e.StatusCode >= 500
}

// Sentinels for errors.Is.
var (
	ErrMissingCredentials = &Error{Kind: KindMissingCredentials}
	ErrAuthFailure        = &Error{Kind: KindAuthFailure}
	ErrSettingsFailure    = &Error{Kind: KindSettingsFailure}
	ErrNoEligibleDevice   = &Error{Kind: KindNoEligibleDevice}
	ErrStreamUnavailable  = &Error{Kind: KindStreamUnavailable}
	ErrTransport          = &Error{Kind: KindTransport}
	ErrAPIFailure         = &Error{Kind: KindAPIFailure}
)

// ErrNoSession is returned when an operation is called without an
// authenticated session.
var ErrNoSession = errors.New("playmusic: authenticated session required")

const maxBodySnippet = 512

// snippet trims a response body for inclusion in an error.
func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet]) + "..."
	}
	return string(body)
}

// transportError wraps a failure from the HTTP round trip.
func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Message: op, Err: err}
}

// IsTimeout reports whether err was caused by a network timeout.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
