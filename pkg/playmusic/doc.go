// Package playmusic provides a client library for the Google Play Music
// mobile API.
//
// # Overview
//
// This package implements the parts of the mobile API needed to turn an
// account and a track id into a playable URL: the ClientLogin handshake,
// the account settings lookup that picks a registered device, and the
// HMAC-signed stream request. Favorites and search are exposed as raw JSON
// passthroughs.
//
// # Installation
//
//	go get github.com/jfmyers9/playmusic/pkg/playmusic
//
// # Quick Start
//
//	client, err := playmusic.NewClient(playmusic.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := client.Login(ctx, "me@example.com", appPassword)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	streamURL, err := client.Stream().URL(ctx, session, "Tabc123")
//
// # Authentication
//
// Login runs three steps, which can also be called separately:
//
//  1. Auth().Authenticate exchanges email and password for a token
//  2. Settings().Fetch reads the account settings and selects the first
//     phone or tablet registered on the account
//  3. NewSession bundles the token, the signing key and the settings
//
// A Session is immutable and safe to share between goroutines. It is not
// meant to be stored: log in again on the next run.
//
// # Stream URLs
//
// Every stream request carries a fresh 13-character salt and an HMAC-SHA1
// signature over the track id and salt, keyed by a secret derived from two
// constants embedded in this package (see DefaultKey). The server answers
// with a redirect to the audio; that location is returned. It expires after
// a short time.
//
// Track ids starting with "T" are catalog (all-access) ids. Any other id is
// treated as a track in the user's own library.
//
// # Error Handling
//
// All operations return *Error. Use errors.Is with the sentinels to branch
// on the kind:
//
//	streamURL, err := client.Stream().URL(ctx, session, id)
//	switch {
//	case errors.Is(err, playmusic.ErrNoEligibleDevice):
//	    // no phone or tablet on the account
//	case errors.Is(err, playmusic.ErrStreamUnavailable):
//	    // bad id, expired token or rejected signature
//	}
//
// The client never retries. (*Error).Temporary reports failures worth
// retrying at the caller's discretion.
//
// # Context Support
//
// All network methods accept a context.Context for cancellation and
// timeouts:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	session, err := client.Login(ctx, email, password)
//
// # Configuration
//
// The client can be configured with a custom HTTP client, endpoint
// overrides (for testing) and an optional logger:
//
//	client, err := playmusic.NewClient(playmusic.Config{
//	    HTTPClient: &http.Client{Timeout: 30 * time.Second},
//	    Logger:     myLogger, // Implements playmusic.Logger interface
//	})
//
// The HTTP client is copied and redirects are disabled on the copy.
package playmusic
