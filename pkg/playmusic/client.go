// Package playmusic provides a client for the Google Play Music mobile API.
//
// This package implements the login handshake, account settings lookup and
// the signed stream URL protocol. It is designed to be used as a standalone
// SDK.
//
// Example usage:
//
//	import "github.com/jfmyers9/playmusic/pkg/playmusic"
//
//	client, err := playmusic.NewClient(playmusic.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := client.Login(ctx, email, password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	streamURL, err := client.Stream().URL(ctx, session, "Tj6fhurtstzgdpvfm4xv6i5cei4")
package playmusic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Endpoints holds the service URLs. Zero fields fall back to the defaults.
type Endpoints struct {
	Auth   string // ClientLogin endpoint
	Web    string // web services root (settings, favorites)
	Mobile string // mobile root (stream redirects)
	API    string // sj API root (search)
}

// Default service URLs.
const (
	DefaultAuthURL   = "https://android.clients.google.com/auth"
	DefaultWebURL    = "https://play.google.com/music/"
	DefaultMobileURL = "https://android.clients.google.com/music/"
	DefaultAPIURL    = "https://www.googleapis.com/sj/v1.11/"
)

// Config holds client configuration.
type Config struct {
	HTTPClient *http.Client // Optional: HTTP client (defaults to a client with no timeout)
	Endpoints  Endpoints    // Optional: service URLs (defaults to the Google endpoints, used for testing)
	UserAgent  string       // Optional: User-Agent header
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Play Music operations.
//
// A Client holds no per-account state and is safe for concurrent use.
// Account state lives in the Session returned by Login.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	userAgent  string
	logger     Logger

	auth     *AuthService
	settings *SettingsService
	stream   *StreamService
	library  *LibraryService
}

const defaultUserAgent = "playmusic/1.0"

// NewClient creates a new Play Music client.
//
// The HTTP client is copied and set to never follow redirects: the stream
// endpoint answers with a 302 whose Location is the result.
func NewClient(cfg Config) (*Client, error) {
	var httpClient http.Client
	if cfg.HTTPClient != nil {
		httpClient = *cfg.HTTPClient
	}
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	endpoints := Endpoints{
		Auth:   withDefault(cfg.Endpoints.Auth, DefaultAuthURL),
		Web:    withSlash(withDefault(cfg.Endpoints.Web, DefaultWebURL)),
		Mobile: withSlash(withDefault(cfg.Endpoints.Mobile, DefaultMobileURL)),
		API:    withSlash(withDefault(cfg.Endpoints.API, DefaultAPIURL)),
	}
	for name, raw := range map[string]string{
		"auth":   endpoints.Auth,
		"web":    endpoints.Web,
		"mobile": endpoints.Mobile,
		"api":    endpoints.API,
	} {
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return nil, fmt.Errorf("playmusic: %s endpoint %q is not an http(s) URL", name, raw)
		}
	}

	c := &Client{
		httpClient: &httpClient,
		endpoints:  endpoints,
		userAgent:  withDefault(cfg.UserAgent, defaultUserAgent),
		logger:     cfg.Logger,
	}

	c.auth = &AuthService{client: c}
	c.settings = &SettingsService{client: c}
	c.stream = &StreamService{client: c}
	c.library = &LibraryService{client: c}

	return c, nil
}

// Auth returns the authentication service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// Settings returns the account settings service.
func (c *Client) Settings() *SettingsService {
	return c.settings
}

// Stream returns the stream URL service.
func (c *Client) Stream() *StreamService {
	return c.stream
}

// Library returns the favorites and search service.
func (c *Client) Library() *LibraryService {
	return c.library
}

// Login authenticates, fetches account settings and returns a Session
// holding everything needed to sign stream requests.
//
// A session without an eligible device is still returned; stream requests
// made with it fail with ErrNoEligibleDevice.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	key := DefaultKey()

	token, err := c.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	settings, err := c.settings.Fetch(ctx, token)
	if err != nil {
		return nil, err
	}

	if settings.DeviceID == "" {
		c.logDebugf("playmusic: no phone or tablet registered on account")
	}

	return NewSession(token, key, settings), nil
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func withSlash(v string) string {
	if strings.HasSuffix(v, "/") {
		return v
	}
	return v + "/"
}
