package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
	"github.com/oremus-labs/scribe-bridge/internal/validator"
)

// sessionToken fetches a token, writing the 401 response on failure.
func (h *Handler) sessionToken(c *gin.Context) (string, bool) {
	token, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		logutil.Error("jwt retrieval failed", err, nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "JWT token not found", "details": err.Error()})
		return "", false
	}
	return token, true
}

// CreateSession opens a new upstream session.
func (h *Handler) CreateSession(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	id, err := h.api.CreateSession(c.Request.Context(), token)
	if err != nil {
		logutil.Error("session creation failed", err, nil)
		writeUpstreamError(c, err)
		return
	}
	h.publish(c, events.TypeSessionCreated, gin.H{"session_id": id})
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// GetSession returns the upstream session document.
func (h *Handler) GetSession(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	raw, err := h.api.GetSession(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// UpdateSession patches the optional session fields.
func (h *Handler) UpdateSession(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	raw := readJSONObject(c)
	if raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}
	if h.validator != nil {
		if result := h.validator.Validate(validator.SessionUpdate, raw); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session update", "details": result.Errors})
			return
		}
	}
	var update upstream.SessionUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if update.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}

	out, err := h.api.UpdateSession(c.Request.Context(), token, c.Param("id"), update)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, out)
}

func (h *Handler) publish(c *gin.Context, typ string, data interface{}) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(c.Request.Context(), events.Event{Type: typ, Data: data}); err != nil {
		logutil.Error("failed to publish event", err, map[string]interface{}{"type": typ})
	}
}
