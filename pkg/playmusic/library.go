package playmusic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// LibraryService exposes the favorites and search endpoints. Results are
// returned as raw JSON; no catalog schema is imposed on them.
type LibraryService struct {
	client *Client
}

// DefaultMaxResults is the search result limit used when none is given.
const DefaultMaxResults = 20

// Favorites returns the account's thumbs-up tracks as a raw JSON array.
func (l *LibraryService) Favorites(ctx context.Context, session *Session) (json.RawMessage, error) {
	if session == nil || session.Token == "" {
		return nil, ErrNoSession
	}
	resp, err := l.client.do(ctx, request{
		method:      http.MethodPost,
		url:         l.client.endpoints.Web + "services/getephemthumbsup",
		token:       session.Token,
		contentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}

	var body struct {
		Track json.RawMessage `json:"track"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &Error{Kind: KindAPIFailure, Message: "parse favorites", Body: snippet(resp.Body), Err: err}
	}
	if len(body.Track) == 0 {
		return json.RawMessage("[]"), nil
	}
	return body.Track, nil
}

// Search queries the catalog and library. maxResults <= 0 means
// DefaultMaxResults.
func (l *LibraryService) Search(ctx context.Context, session *Session, query string, maxResults int) (json.RawMessage, error) {
	if session == nil || session.Token == "" {
		return nil, ErrNoSession
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &Error{Kind: KindAPIFailure, Message: "search query is required"}
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("ct", "1,2,3,4,5,6,7,8,9")
	q.Set("max-results", strconv.Itoa(maxResults))

	resp, err := l.client.do(ctx, request{
		method: http.MethodGet,
		url:    l.client.endpoints.API + "query?" + q.Encode(),
		token:  session.Token,
	})
	if err != nil {
		return nil, err
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, &Error{Kind: KindAPIFailure, Message: "search response is not JSON", Body: snippet(resp.Body)}
	}
	return json.RawMessage(resp.Body), nil
}

func apiError(resp *response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	return &Error{
		Kind:       KindAPIFailure,
		StatusCode: resp.StatusCode,
		Body:       snippet(resp.Body),
	}
}
