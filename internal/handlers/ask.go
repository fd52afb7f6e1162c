package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
	"github.com/oremus-labs/scribe-bridge/internal/validator"
)

const missingAskParams = "Missing required parameters: session_id, ai_command_text, content"

type askRequest struct {
	SessionID   string `json:"session_id"`
	Command     string `json:"ai_command_text"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// AskHeidi sends one ask-AI prompt.
func (h *Handler) AskHeidi(c *gin.Context) {
	h.ask(c, false)
}

// AskHeidiEnhanced sends the prompt in fallback mode, trying each content
// type until one succeeds.
func (h *Handler) AskHeidiEnhanced(c *gin.Context) {
	h.ask(c, true)
}

func (h *Handler) ask(c *gin.Context, fallbacks bool) {
	token, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": "Error: " + err.Error()})
		return
	}

	raw := readJSONObject(c)
	if raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No JSON data provided"})
		return
	}
	var req askRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.SessionID == "" || req.Command == "" || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": missingAskParams})
		return
	}
	if h.validator != nil {
		if result := h.validator.Validate(validator.AskRequest, raw); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ask request", "details": result.Errors})
			return
		}
	}

	result := h.flows.Ask(c.Request.Context(), token, upstream.AskRequest{
		SessionID:   req.SessionID,
		Command:     req.Command,
		Content:     req.Content,
		ContentType: req.ContentType,
	}, fallbacks)
	c.JSON(resultStatus(result), result.Map())
}

// resultStatus maps an envelope to the HTTP status it is returned with.
func resultStatus(result askai.Result) int {
	if result.OK() {
		return http.StatusOK
	}
	if status := result.StatusCode(); status >= 400 {
		return status
	}
	return http.StatusInternalServerError
}
