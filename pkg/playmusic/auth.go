package playmusic

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// AuthService provides authentication operations.
type AuthService struct {
	client *Client
}

// Authenticate exchanges account credentials for a GoogleLogin token.
//
// Both email and password are required; if either is empty it fails with
// ErrMissingCredentials without contacting the server.
//
// Example:
//
//	token, err := client.Auth().Authenticate(ctx, "me@example.com", appPassword)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings, err := client.Settings().Fetch(ctx, token)
func (a *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", &Error{Kind: KindMissingCredentials, Message: "email and password are required"}
	}

	form := authForm(email, password)

	resp, err := a.client.do(ctx, request{
		method:      http.MethodPost,
		url:         a.client.endpoints.Auth,
		contentType: contentTypeForm,
		body:        []byte(form.Encode()),
	})
	if err != nil {
		return "", err
	}

	fields := ParseKeyValues(string(resp.Body))
	if !isSuccess(resp.StatusCode) {
		return "", &Error{
			Kind:       KindAuthFailure,
			StatusCode: resp.StatusCode,
			Message:    fields["Error"],
			Body:       snippet(resp.Body),
		}
	}

	token := fields["Auth"]
	if token == "" {
		return "", &Error{
			Kind:       KindAuthFailure,
			StatusCode: resp.StatusCode,
			Message:    "response has no Auth field",
			Body:       snippet(resp.Body),
		}
	}

	a.client.logDebugf("playmusic: authenticated %s", email)
	return token, nil
}

// authForm builds the ClientLogin form the Android music app sends.
func authForm(email, password string) url.Values {
	form := url.Values{}
	form.Set("Email", email)
	form.Set("Passwd", password)
	form.Set("accountType", "HOSTED_OR_GOOGLE")
	form.Set("has_permission", "1")
	form.Set("service", "sj")
	form.Set("source", "android")
	form.Set("androidId", "")
	form.Set("app", "com.google.android.music")
	form.Set("device_country", "us")
	form.Set("operatorCountry", "us")
	form.Set("lang", "en")
	form.Set("sdk_version", "17")
	return form
}

// ParseKeyValues parses a body of newline-separated key=value lines.
//
// Lines without '=' or starting with '=' are skipped. Only the first '='
// separates key from value. Trailing carriage returns are dropped.
func ParseKeyValues(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		fields[key] = value
	}
	return fields
}
