package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/metrics"
)

// DefaultContentType is sent when an ask request names none.
const DefaultContentType = "MARKDOWN"

// FallbackContentTypes are tried in order by AskWithFallbacks.
var FallbackContentTypes = []string{"MARKDOWN", "TEXT", "PLAIN_TEXT"}

// MessageAllFallbacksFailed is the failure message once every content type was rejected.
const MessageAllFallbacksFailed = "All content types failed"

// AskRequest is one ask-AI prompt.
type AskRequest struct {
	SessionID   string `json:"session_id"`
	Command     string `json:"ai_command_text"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

// AskAI sends one prompt and classifies the reply. Transport failures are
// returned as failure results, never as errors.
func (c *Client) AskAI(ctx context.Context, jwt string, in AskRequest) askai.Result {
	contentType := in.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	body, err := jsonBody(map[string]string{
		"ai_command_text": in.Command,
		"content":         in.Content,
		"content_type":    contentType,
	})
	if err != nil {
		return askai.TransportFailure(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.askTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, request{
		method:      http.MethodPost,
		path:        "/sessions/" + url.PathEscape(in.SessionID) + "/ask-ai",
		jwt:         jwt,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return askai.TransportFailure(err)
	}
	// The ask deadline comes from ctx, not from the shared client timeout.
	hc := *c.client
	hc.Timeout = 0
	resp, err := send(&hc, req, "ask_ai")
	if err != nil {
		logutil.Error("ask-ai request failed", err, map[string]interface{}{
			"session_id":   in.SessionID,
			"content_type": contentType,
		})
		return askai.TransportFailure(err)
	}
	defer resp.Body.Close()
	return askai.Classify(resp)
}

// AskWithFallbacks retries the prompt with each of FallbackContentTypes and
// returns the first success.
func (c *Client) AskWithFallbacks(ctx context.Context, jwt string, in AskRequest) askai.Result {
	var last askai.Result
	for _, contentType := range FallbackContentTypes {
		in.ContentType = contentType
		last = c.AskAI(ctx, jwt, in)
		metrics.ObserveFallbackAttempt(contentType, last.OK())
		if last.OK() {
			return last
		}
		logutil.Info("ask-ai content type rejected", map[string]interface{}{
			"content_type": contentType,
			"message":      last.Message(),
		})
		if ctx.Err() != nil {
			break
		}
	}
	return askai.Failed(askai.Failure{
		StatusCode: last.StatusCode(),
		Message:    MessageAllFallbacksFailed,
		Suggestion: "Check JWT token and session validity",
	})
}
