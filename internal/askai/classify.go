package askai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/metrics"
)

const (
	MessageAuthFailed  = "Authentication failed - JWT token may be expired"
	MessageNotFound    = "Session not found - session may have expired"
	MessageSSEEmpty    = "SSE response was empty after parsing"
	MessageEmpty       = "Empty response received"
	MessageTimeout     = "Request timeout - AI response took too long"
	MessageConnection  = "Connection error - unable to reach the upstream API"
	WarningJSONAsText  = "Expected JSON but got raw text"
	rawResponsePreview = 500
)

// Classify turns an upstream response into a Result. The body is consumed
// but not closed.
func Classify(resp *http.Response) Result {
	var body io.Reader = http.NoBody
	if resp.Body != nil {
		body = resp.Body
	}
	return ClassifyParts(resp.StatusCode, resp.Header, body)
}

// ClassifyParts classifies a reply given its status, headers and body.
func ClassifyParts(status int, header http.Header, body io.Reader) Result {
	result := classify(status, header, body)
	outcome := "success"
	format := ""
	if s, ok := result.Success(); ok {
		format = string(s.Format)
		logutil.Debug("ask-ai reply classified", map[string]interface{}{
			"status": status,
			"format": format,
		})
	} else {
		outcome = "failure"
		logutil.Warn("ask-ai reply rejected", map[string]interface{}{
			"status":  status,
			"message": truncate(result.Message(), 200),
		})
	}
	metrics.ObserveAskOutcome(format, outcome)
	return result
}

func classify(status int, header http.Header, body io.Reader) Result {
	if status != http.StatusOK {
		// The status already decides the outcome; a short body only trims the message.
		raw, _ := readAll(body)
		return statusFailure(status, raw)
	}

	contentType := strings.ToLower(header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "text/event-stream"):
		return classifySSE(body)
	case strings.Contains(contentType, "application/json"):
		raw, err := readAll(body)
		if err != nil {
			return transportFailure(err)
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return Succeeded(Success{Response: raw, Format: FormatText, Warning: WarningJSONAsText})
		}
		return Succeeded(Success{Response: decoded, Format: FormatJSON})
	default:
		raw, err := readAll(body)
		if err != nil {
			return transportFailure(err)
		}
		if strings.TrimSpace(raw) == "" {
			return Failed(Failure{StatusCode: status, Message: MessageEmpty})
		}
		return Succeeded(Success{Response: raw, Format: FormatText})
	}
}

func classifySSE(body io.Reader) Result {
	var preview limitedBuffer
	preview.limit = rawResponsePreview
	text, stats, err := ParseSSE(io.TeeReader(body, &preview))
	if err != nil {
		logutil.Warn("sse body ended with read error", map[string]interface{}{
			"error":    err.Error(),
			"received": stats.Bytes,
		})
		return transportFailure(err)
	}
	if text == "" {
		return Failed(Failure{
			StatusCode:  http.StatusOK,
			Message:     MessageSSEEmpty,
			RawResponse: preview.String(),
		})
	}
	return Succeeded(Success{Response: text, Format: FormatSSE, RawLength: stats.Bytes})
}

func statusFailure(status int, body string) Result {
	switch status {
	case http.StatusUnauthorized:
		return Failed(Failure{StatusCode: status, Message: MessageAuthFailed, Suggestion: "Try refreshing the JWT token"})
	case http.StatusNotFound:
		return Failed(Failure{StatusCode: status, Message: MessageNotFound, Suggestion: "Create a new session"})
	default:
		return Failed(Failure{StatusCode: status, Message: body, Suggestion: "Check API documentation for status code meaning"})
	}
}

// TransportFailure converts an error from the outbound call into a Result
// and counts it as a failed ask.
func TransportFailure(err error) Result {
	metrics.ObserveAskOutcome("", "failure")
	return transportFailure(err)
}

// transportFailure also covers bodies that break off mid-read, so a partial
// reply is never reported as a success.
func transportFailure(err error) Result {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return Failed(Failure{Message: MessageTimeout, Suggestion: "Try again with simpler content or check network connection"})
	case isConnectionError(err):
		return Failed(Failure{Message: MessageConnection, Suggestion: "Check internet connection and API status"})
	default:
		return Failed(Failure{Message: fmt.Sprintf("Unexpected error: %v", err), Suggestion: "Check logs for more details"})
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func readAll(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		logutil.Warn("failed to read ask-ai body", map[string]interface{}{"error": err.Error()})
	}
	return string(data), err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// limitedBuffer keeps the first limit bytes written to it.
type limitedBuffer struct {
	buf   []byte
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		b.buf = append(b.buf, p[:room]...)
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(b.buf)
}
