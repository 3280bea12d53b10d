package playmusic

import (
	"context"
	"fmt"
	"net/http"
)

// StreamService resolves signed stream URLs.
type StreamService struct {
	client *Client
}

// NewStreamRequest signs a stream lookup for trackID with a fresh salt.
//
// Track ids starting with "T" are catalog (all-access) tracks; anything
// else is looked up in the user's library.
func NewStreamRequest(key Key, trackID string) (StreamRequest, error) {
	salt, err := newSalt(saltLength)
	if err != nil {
		return StreamRequest{}, fmt.Errorf("playmusic: %w", err)
	}
	return newStreamRequest(key, trackID, salt)
}

func newStreamRequest(key Key, trackID, salt string) (StreamRequest, error) {
	sig, err := calculateSignature(key, trackID, salt)
	if err != nil {
		return StreamRequest{}, fmt.Errorf("playmusic: %w", err)
	}
	return StreamRequest{
		TrackID:   trackID,
		Salt:      salt,
		Signature: sig,
	}, nil
}

// URL returns the playable location of a track.
//
// The session must have a device id; otherwise URL fails with
// ErrNoEligibleDevice without contacting the server. The server answers a
// valid request with a redirect, and the redirect target is returned as is.
// The URL is only valid for a limited time.
//
// Example:
//
//	streamURL, err := client.Stream().URL(ctx, session, "Tabc123")
//	if errors.Is(err, playmusic.ErrNoEligibleDevice) {
//	    log.Fatal("register a phone or tablet with the account first")
//	}
func (s *StreamService) URL(ctx context.Context, session *Session, trackID string) (string, error) {
	if !session.HasDevice() {
		return "", &Error{
			Kind:    KindNoEligibleDevice,
			Message: "access the account from a mobile device and try again",
		}
	}
	if trackID == "" {
		return "", fmt.Errorf("playmusic: track id is required")
	}

	req, err := NewStreamRequest(session.Key, trackID)
	if err != nil {
		return "", err
	}

	header := http.Header{}
	header.Set("X-Device-ID", session.DeviceID)

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		url:    s.client.endpoints.Mobile + "mplay?" + req.Query().Encode(),
		token:  session.Token,
		header: header,
	})
	if err != nil {
		return "", err
	}

	location := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusFound || location == "" {
		e := &Error{
			Kind:       KindStreamUnavailable,
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
		}
		if resp.StatusCode == http.StatusFound {
			e.Message = "redirect has no location"
		}
		return "", e
	}

	s.client.logDebugf("playmusic: resolved stream for %s", trackID)
	return location, nil
}
