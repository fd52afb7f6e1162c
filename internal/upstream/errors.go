package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx reply from the upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// StatusOf returns the upstream status carried by err, or fallback.
func StatusOf(err error, fallback int) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return fallback
}

// ErrorPayload renders err in the {error, status_code, message} shape.
func ErrorPayload(err error) map[string]interface{} {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return map[string]interface{}{
			"error":       true,
			"status_code": apiErr.StatusCode,
			"message":     apiErr.Message,
		}
	}
	return map[string]interface{}{
		"error":   true,
		"message": err.Error(),
	}
}
