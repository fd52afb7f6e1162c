package upstream

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrMissingToken is returned when the token reply carries no token.
var ErrMissingToken = errors.New("token missing in upstream response")

// FetchToken requests a fresh JWT for the configured clinician.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	raw, err := c.do(ctx, request{
		operation: "jwt",
		method:    http.MethodGet,
		path:      "/jwt",
		apiKey:    true,
		query: map[string]string{
			"email":                   c.creds.Email,
			"third_party_internal_id": c.creds.UserID,
		},
	})
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(raw, "token").String()
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
