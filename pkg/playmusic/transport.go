package playmusic

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// request describes one call to the service.
type request struct {
	method      string
	url         string
	token       string // GoogleLogin token; empty for the auth call
	contentType string
	body        []byte
	header      http.Header
}

// response is the status, headers and body of a completed call.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// do performs a single HTTP round trip.
//
// It only fails for transport-level problems; interpreting the status code
// is left to the caller. There is no retry: callers that want one should
// check (*Error).Temporary.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, transportError("create request", err)
	}

	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	contentType := r.contentType
	if contentType == "" {
		contentType = contentTypeForm
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "GoogleLogin auth="+r.token)
	}

	c.logDebugf("playmusic: %s %s", r.method, req.URL.Redacted())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError("http request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("read response", err)
	}

	c.logDebugf("playmusic: %s %s -> %d (%d bytes)", r.method, req.URL.Path, resp.StatusCode, len(data))

	return &response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
