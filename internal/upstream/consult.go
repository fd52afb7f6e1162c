package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const (
	DefaultConsultTemplate   = "general"
	DefaultConsultTranscript = "Patient complains of shortness of breath and chest discomfort during exercise. No known history of heart disease."
)

// ConsultNoteRequest selects how a consult note is generated. With a
// SessionID the session endpoint is used; without one the template endpoint
// generates from Template and Transcript.
type ConsultNoteRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
	VoiceStyle string `json:"voice_style,omitempty"`
	Brain      string `json:"brain,omitempty"`
	Template   string `json:"template,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

const consultTemplatesPath = "/templates/consult-note-templates"

// ConsultNoteTemplates lists the available consult note templates.
func (c *Client) ConsultNoteTemplates(ctx context.Context, jwt string) (json.RawMessage, error) {
	return c.do(ctx, request{
		operation: "consult_templates",
		method:    http.MethodGet,
		path:      consultTemplatesPath,
		jwt:       jwt,
	})
}

// GenerateConsultNote generates a consult note.
func (c *Client) GenerateConsultNote(ctx context.Context, jwt string, in ConsultNoteRequest) (json.RawMessage, error) {
	if in.SessionID == "" {
		template, transcript := in.Template, in.Transcript
		if template == "" {
			template = DefaultConsultTemplate
		}
		if transcript == "" {
			transcript = DefaultConsultTranscript
		}
		body, err := jsonBody(map[string]string{"template": template, "transcript": transcript})
		if err != nil {
			return nil, err
		}
		return c.do(ctx, request{
			operation:   "consult_note",
			method:      http.MethodPost,
			path:        consultTemplatesPath,
			jwt:         jwt,
			body:        body,
			contentType: "application/json",
		})
	}

	payload := map[string]string{"template_id": in.TemplateID}
	if in.VoiceStyle != "" {
		payload["voice_style"] = in.VoiceStyle
	}
	if in.Brain != "" {
		payload["brain"] = in.Brain
	}
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		operation:   "consult_note",
		method:      http.MethodPost,
		path:        "/sessions/" + url.PathEscape(in.SessionID) + "/consult-note",
		jwt:         jwt,
		apiKey:      true,
		body:        body,
		contentType: "application/json",
	})
}
