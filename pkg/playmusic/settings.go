package playmusic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SettingsService retrieves account settings.
type SettingsService struct {
	client *Client
}

// settingsEnvelope is the subset of the fetchsettings response we read.
type settingsEnvelope struct {
	Settings json.RawMessage `json:"settings"`
}

type settingsBody struct {
	EntitlementInfo struct {
		IsSubscription bool `json:"isSubscription"`
	} `json:"entitlementInfo"`
	UploadDevice []Device `json:"uploadDevice"`
}

// Fetch retrieves the account settings for token and selects the device
// used to sign stream requests.
//
// The absence of a phone or tablet is not an error here: DeviceID is left
// empty and the failure surfaces when a stream URL is requested.
func (s *SettingsService) Fetch(ctx context.Context, token string) (*AccountSettings, error) {
	payload, err := json.Marshal(map[string]string{"sessionId": ""})
	if err != nil {
		return nil, fmt.Errorf("playmusic: encode settings request: %w", err)
	}

	resp, err := s.client.do(ctx, request{
		method:      http.MethodPost,
		url:         s.client.endpoints.Web + "services/fetchsettings?" + url.Values{"u": {"0"}}.Encode(),
		token:       token,
		contentType: contentTypeJSON,
		body:        payload,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Kind:       KindSettingsFailure,
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
		}
	}

	// The endpoint labels its JSON as text/plain, so ignore Content-Type.
	settings, err := parseSettings(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindSettingsFailure,
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
			Err:        err,
		}
	}
	return settings, nil
}

// parseSettings decodes a fetchsettings body.
func parseSettings(data []byte) (*AccountSettings, error) {
	var env settingsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if len(env.Settings) == 0 || string(env.Settings) == "null" {
		return nil, fmt.Errorf("response has no settings object")
	}

	var body settingsBody
	if err := json.Unmarshal(env.Settings, &body); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	return &AccountSettings{
		AllAccess: body.EntitlementInfo.IsSubscription,
		DeviceID:  SelectDevice(body.UploadDevice),
		Devices:   body.UploadDevice,
		Raw:       env.Settings,
	}, nil
}

// SelectDevice returns the canonical id of the first phone or tablet in
// devices, or "" if there is none.
func SelectDevice(devices []Device) string {
	for _, d := range devices {
		if d.DeviceType == DeviceTypePhone || d.DeviceType == DeviceTypeTablet {
			return NormalizeDeviceID(d)
		}
	}
	return ""
}

// NormalizeDeviceID strips the two-character prefix carried by phone ids.
// Tablet ids are returned unchanged.
func NormalizeDeviceID(d Device) string {
	if d.DeviceType != DeviceTypePhone {
		return d.ID
	}
	if len(d.ID) < 2 {
		return ""
	}
	return d.ID[2:]
}
