// Package askai classifies replies from the upstream ask-AI endpoint into a
// uniform result envelope.
package askai

import "encoding/json"

// Format names the body encoding a successful reply was read as.
type Format string

const (
	FormatSSE  Format = "sse"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Success is a reply that produced usable content.
type Success struct {
	// Response is a string for sse/text replies and a decoded JSON value for json replies.
	Response  interface{}
	Format    Format
	Warning   string
	RawLength int
}

// Failure describes why no content could be produced. StatusCode is zero
// when the failure happened before any HTTP status was received.
type Failure struct {
	StatusCode  int
	Message     string
	Suggestion  string
	RawResponse string
}

// Result holds exactly one of a Success or a Failure.
type Result struct {
	success *Success
	failure *Failure
}

// Succeeded wraps s as a Result.
func Succeeded(s Success) Result {
	return Result{success: &s}
}

// Failed wraps f as a Result.
func Failed(f Failure) Result {
	return Result{failure: &f}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.success != nil
}

// Success returns the success variant.
func (r Result) Success() (*Success, bool) {
	return r.success, r.success != nil
}

// Failure returns the failure variant. A zero Result is reported as a failure.
func (r Result) Failure() (*Failure, bool) {
	if r.success != nil {
		return nil, false
	}
	if r.failure == nil {
		return &Failure{Message: "No result"}, true
	}
	return r.failure, true
}

// Text returns the response as a string when it is one.
func (r Result) Text() string {
	if r.success == nil {
		return ""
	}
	if s, ok := r.success.Response.(string); ok {
		return s
	}
	return ""
}

// Message returns the failure message, or "" for successes.
func (r Result) Message() string {
	if f, ok := r.Failure(); ok {
		return f.Message
	}
	return ""
}

// StatusCode returns the upstream status carried by a failure, or zero.
func (r Result) StatusCode() int {
	if f, ok := r.Failure(); ok {
		return f.StatusCode
	}
	return 0
}

// Map renders the envelope as the JSON object shape returned to clients.
func (r Result) Map() map[string]interface{} {
	if s, ok := r.Success(); ok {
		out := map[string]interface{}{
			"success":  true,
			"error":    false,
			"response": s.Response,
			"format":   s.Format,
		}
		if s.Warning != "" {
			out["warning"] = s.Warning
		}
		if s.RawLength > 0 {
			out["raw_length"] = s.RawLength
		}
		return out
	}
	f, _ := r.Failure()
	out := map[string]interface{}{
		"success": false,
		"error":   true,
		"message": f.Message,
	}
	if f.StatusCode != 0 {
		out["status_code"] = f.StatusCode
	}
	if f.Suggestion != "" {
		out["suggestion"] = f.Suggestion
	}
	if f.RawResponse != "" {
		out["raw_response"] = f.RawResponse
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
