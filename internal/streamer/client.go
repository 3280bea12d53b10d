package streamer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/playmusic/pkg/playmusic"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Options configures a Client
type Options struct {
	Endpoints   playmusic.Endpoints
	Timeout     time.Duration
	Concurrency int
	// Cache is optional; when nil every lookup goes to the service
	Cache *Cache
}

// Client wraps the Play Music API client for one logged-in account
type Client struct {
	client      *playmusic.Client
	cache       *Cache
	concurrency int
	logger      zerolog.Logger

	account string
	session *playmusic.Session
}

// Result is the outcome of resolving one track
type Result struct {
	Index     int
	TrackID   string
	URL       string
	ExpiresAt time.Time
	Cached    bool
	Err       error
}

// Batch is the outcome of a Resolve call
type Batch struct {
	ID      string
	Results []Result
}

// Failed returns the number of tracks that could not be resolved
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// zerologAdapter lets the SDK write debug lines through zerolog
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}

// New creates a new client
func New(opts Options, logger zerolog.Logger) (*Client, error) {
	logger = logger.With().Str("component", "streamer").Logger()

	client, err := playmusic.NewClient(playmusic.Config{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		Endpoints:  opts.Endpoints,
		Logger:     zerologAdapter{logger: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playmusic client: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Client{
		client:      client,
		cache:       opts.Cache,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Login authenticates the account and keeps the session for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*playmusic.Session, error) {
	session, err := c.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	c.account = email
	c.session = session

	c.logger.Info().
		Bool("all_access", session.AllAccess).
		Bool("has_device", session.HasDevice()).
		Msg("Logged in")

	return session, nil
}

// Session returns the current session, or nil before Login
func (c *Client) Session() *playmusic.Session {
	return c.session
}

// IsAuthenticated checks if the client has a session
func (c *Client) IsAuthenticated() bool {
	return c.session != nil
}

// Resolve looks up stream URLs for the given tracks using a bounded pool.
// Results are returned in input order with per-track errors. The call
// itself only fails when there is no session or no eligible device.
func (c *Client) Resolve(ctx context.Context, trackIDs []string) (*Batch, error) {
	if c.session == nil {
		return nil, playmusic.ErrNoSession
	}
	if !c.session.HasDevice() {
		return nil, fmt.Errorf("cannot resolve streams: %w", playmusic.ErrNoEligibleDevice)
	}

	batch := &Batch{ID: uuid.NewString()}
	logger := c.logger.With().Str("batch", batch.ID).Logger()

	logger.Debug().
		Int("tracks", len(trackIDs)).
		Int("concurrency", c.concurrency).
		Msg("Resolving streams")

	p := pool.NewWithResults[Result]().WithMaxGoroutines(c.concurrency)
	for i, id := range trackIDs {
		i, id := i, id
		p.Go(func() Result {
			return c.resolveOne(ctx, logger, batch.ID, i, id)
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	batch.Results = results

	logger.Info().
		Int("tracks", len(results)).
		Int("failed", batch.Failed()).
		Msg("Resolved streams")

	return batch, nil
}

func (c *Client) resolveOne(ctx context.Context, logger zerolog.Logger, batchID string, index int, trackID string) Result {
	result := Result{Index: index, TrackID: trackID}

	if c.cache != nil {
		entry, ok, err := c.cache.Get(ctx, c.account, trackID)
		if err != nil {
			logger.Warn().Err(err).Str("track", trackID).Msg("Failed to read stream cache")
		} else if ok {
			result.URL = entry.URL
			result.ExpiresAt = entry.ExpiresAt
			result.Cached = true
			return result
		}
	}

	streamURL, err := c.client.Stream().URL(ctx, c.session, trackID)
	if err != nil {
		result.Err = err
		logger.Debug().Err(err).Str("track", trackID).Msg("Stream lookup failed")
		return result
	}
	result.URL = streamURL

	if c.cache == nil {
		return result
	}

	entry, err := c.cache.Put(ctx, c.account, trackID, streamURL, batchID)
	if err != nil {
		logger.Warn().Err(err).Str("track", trackID).Msg("Failed to cache stream")
		return result
	}
	result.ExpiresAt = entry.ExpiresAt

	return result
}

// Favorites returns the account's thumbs-up tracks as raw JSON
func (c *Client) Favorites(ctx context.Context) (json.RawMessage, error) {
	tracks, err := c.client.Library().Favorites(ctx, c.session)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	return tracks, nil
}

// Search runs a catalog and library search and returns the raw JSON response
func (c *Client) Search(ctx context.Context, query string, maxResults int) (json.RawMessage, error) {
	result, err := c.client.Library().Search(ctx, c.session, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return result, nil
}

// IsTemporary reports whether err is worth retrying later
func IsTemporary(err error) bool {
	var apiErr *playmusic.Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return playmusic.IsTimeout(err)
}
