package playmusic

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Session is an authenticated account, ready to sign stream requests.
//
// A Session is never modified after NewSession returns and may be shared
// between goroutines.
type Session struct {
	Token     string          // GoogleLogin auth token
	Key       Key             // Stream signing key
	DeviceID  string          // Canonical phone or tablet id, empty if none
	AllAccess bool            // Whether the account has a subscription
	Settings  json.RawMessage // Raw account settings object
}

// NewSession bundles a token, signing key and account settings.
func NewSession(token string, key Key, settings *AccountSettings) *Session {
	s := &Session{
		Token: token,
		Key:   key,
	}
	if settings != nil {
		s.DeviceID = settings.DeviceID
		s.AllAccess = settings.AllAccess
		s.Settings = append(json.RawMessage(nil), settings.Raw...)
	}
	return s
}

// HasDevice reports whether the session can sign stream requests.
func (s *Session) HasDevice() bool {
	return s != nil && s.DeviceID != ""
}

// Device types reported in the account's uploadDevice list.
const (
	DeviceTypePhone  = 2
	DeviceTypeTablet = 3
)

// Device is a device registered on the account.
type Device struct {
	ID         string `json:"id"`
	DeviceType int    `json:"deviceType"`
	Name       string `json:"friendlyName,omitempty"`
}

// AccountSettings is the result of SettingsService.Fetch.
type AccountSettings struct {
	AllAccess bool            // settings.entitlementInfo.isSubscription
	DeviceID  string          // Canonical id of the first eligible device, empty if none
	Devices   []Device        // All registered devices
	Raw       json.RawMessage // The settings object as returned by the server
}

// StreamRequest is a single signed stream lookup.
type StreamRequest struct {
	TrackID   string // Track id; a "T" prefix marks a catalog track
	Salt      string // Random salt mixed into the signature
	Signature string // URL-safe base64 HMAC-SHA1 of TrackID+Salt
}

// IsCatalog reports whether the track is an all-access catalog track.
func (r StreamRequest) IsCatalog() bool {
	return strings.HasPrefix(r.TrackID, "T")
}

// Query returns the query parameters for the mplay endpoint.
func (r StreamRequest) Query() url.Values {
	q := url.Values{}
	q.Set("u", "0")
	q.Set("net", "wifi")
	q.Set("pt", "e")
	q.Set("targetkbps", "8310")
	q.Set("slt", r.Salt)
	q.Set("sig", r.Signature)
	if r.IsCatalog() {
		q.Set("mjck", r.TrackID)
	} else {
		q.Set("songid", r.TrackID)
	}
	return q
}
