package playmusic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient points every endpoint at server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(Config{
		HTTPClient: server.Client(),
		Endpoints: Endpoints{
			Auth:   server.URL + "/auth",
			Web:    server.URL + "/music/",
			Mobile: server.URL + "/mobile/",
			API:    server.URL + "/sj/",
		},
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "skips lines without separator",
			body: "Auth=tok123\nExpiry=3600\nbadline",
			want: map[string]string{"Auth": "tok123", "Expiry": "3600"},
		},
		{
			name: "skips lines starting with separator",
			body: "=nokey\nAuth=tok",
			want: map[string]string{"Auth": "tok"},
		},
		{
			name: "splits on first separator only",
			body: "SID=a=b=c",
			want: map[string]string{"SID": "a=b=c"},
		},
		{
			name: "empty value kept",
			body: "LSID=\n",
			want: map[string]string{"LSID": ""},
		},
		{
			name: "crlf line endings",
			body: "Auth=tok\r\nExpiry=1\r\n",
			want: map[string]string{"Auth": "tok", "Expiry": "1"},
		},
		{
			name: "empty body",
			body: "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKeyValues(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		statusCode  int
		wantToken   string
		wantErr     error
		errContains string
	}{
		{
			name:       "success",
			response:   "SID=sid\nLSID=lsid\nAuth=test-token-123\n",
			statusCode: http.StatusOK,
			wantToken:  "test-token-123",
		},
		{
			name:        "bad authentication",
			response:    "Error=BadAuthentication\n",
			statusCode:  http.StatusForbidden,
			wantErr:     ErrAuthFailure,
			errContains: "BadAuthentication",
		},
		{
			name:        "ok status without token",
			response:    "SID=sid\n",
			statusCode:  http.StatusOK,
			wantErr:     ErrAuthFailure,
			errContains: "no Auth field",
		},
		{
			name:        "empty token",
			response:    "Auth=\n",
			statusCode:  http.StatusOK,
			wantErr:     ErrAuthFailure,
			errContains: "status 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Verify request method
				if r.Method != http.MethodPost {
					t.Errorf("expected POST request, got %s", r.Method)
				}
				if r.URL.Path != "/auth" {
					t.Errorf("expected path /auth, got %s", r.URL.Path)
				}

				// Verify Content-Type
				if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
					t.Errorf("expected Content-Type application/x-www-form-urlencoded, got %s", ct)
				}
				if auth := r.Header.Get("Authorization"); auth != "" {
					t.Errorf("expected no Authorization header, got %s", auth)
				}

				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse form: %v", err)
				}

				want := map[string]string{
					"Email":           "user@example.com",
					"Passwd":          "secret",
					"accountType":     "HOSTED_OR_GOOGLE",
					"has_permission":  "1",
					"service":         "sj",
					"source":          "android",
					"app":             "com.google.android.music",
					"device_country":  "us",
					"operatorCountry": "us",
					"lang":            "en",
					"sdk_version":     "17",
				}
				for k, v := range want {
					if got := r.PostForm.Get(k); got != v {
						t.Errorf("expected %s=%q, got %q", k, v, got)
					}
				}

				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(tt.statusCode)
				if _, err := w.Write([]byte(tt.response)); err != nil {
					t.Fatalf("failed to write response body: %v", err)
				}
			}))
			defer server.Close()

			client := newTestClient(t, server)

			token, err := client.Auth().Authenticate(context.Background(), "  user@example.com ", "secret")

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token)
			}
		})
	}
}

func TestAuthService_Authenticate_MissingCredentials(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("Auth=should-not-happen\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "email missing", email: "", password: "pw"},
		{name: "email blank", email: "   ", password: "pw"},
		{name: "password missing", email: "user@example.com", password: ""},
		{name: "both missing", email: "", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Auth().Authenticate(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestAuthService_Authenticate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Auth().Authenticate(context.Background(), "user@example.com", "pw")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}

	var pmErr *Error
	if !errors.As(err, &pmErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !pmErr.Temporary() {
		t.Error("expected transport error to be temporary")
	}
	if pmErr.Unwrap() == nil {
		t.Error("expected transport error to wrap its cause")
	}
}

func TestAuthService_Authenticate_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate slow response
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("Auth=tok\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Auth().Authenticate(ctx, "user@example.com", "pw")
	if err == nil {
		t.Fatal("expected context deadline error, got nil")
	}
	if !strings.Contains(err.Error(), "context deadline exceeded") {
		t.Errorf("expected context deadline error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected error to wrap context.DeadlineExceeded, got %v", err)
	}
}
