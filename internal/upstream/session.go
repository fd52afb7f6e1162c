package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// ErrMissingSessionID is returned when a created session has no id.
var ErrMissingSessionID = errors.New("session id missing in upstream response")

// SessionUpdate holds the optional PATCH fields. Nil fields are not sent.
type SessionUpdate struct {
	Duration                       *int            `json:"duration,omitempty"`
	LanguageCode                   *string         `json:"language_code,omitempty"`
	OutputLanguageCode             *string         `json:"output_language_code,omitempty"`
	Patient                        json.RawMessage `json:"patient,omitempty"`
	ClinicianNotes                 json.RawMessage `json:"clinician_notes,omitempty"`
	GenerateOutputWithoutRecording *bool           `json:"generate_output_without_recording,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u SessionUpdate) IsEmpty() bool {
	return u.Duration == nil && u.LanguageCode == nil && u.OutputLanguageCode == nil &&
		len(u.Patient) == 0 && len(u.ClinicianNotes) == 0 && u.GenerateOutputWithoutRecording == nil
}

// CreateSession opens a new upstream session and returns its id.
func (c *Client) CreateSession(ctx context.Context, jwt string) (string, error) {
	body, err := jsonBody(map[string]string{
		"email":                   c.creds.Email,
		"third_party_internal_id": c.creds.UserID,
	})
	if err != nil {
		return "", err
	}
	raw, err := c.do(ctx, request{
		operation:   "create_session",
		method:      http.MethodPost,
		path:        "/sessions",
		jwt:         jwt,
		apiKey:      true,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	for _, key := range []string{"session_id", "id"} {
		if id := gjson.GetBytes(raw, key).String(); id != "" {
			return id, nil
		}
	}
	return "", ErrMissingSessionID
}

// GetSession returns the upstream session document.
func (c *Client) GetSession(ctx context.Context, jwt, sessionID string) (json.RawMessage, error) {
	return c.do(ctx, request{
		operation: "get_session",
		method:    http.MethodGet,
		path:      "/sessions/" + url.PathEscape(sessionID),
		jwt:       jwt,
		apiKey:    true,
	})
}

// UpdateSession patches the session with the fields set in update.
func (c *Client) UpdateSession(ctx context.Context, jwt, sessionID string, update SessionUpdate) (json.RawMessage, error) {
	body, err := jsonBody(update)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		operation:   "update_session",
		method:      http.MethodPatch,
		path:        "/sessions/" + url.PathEscape(sessionID),
		jwt:         jwt,
		apiKey:      true,
		body:        body,
		contentType: "application/json",
	})
}
