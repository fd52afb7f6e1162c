package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

type transcriptStartRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type transcriptFinishRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	RecordingID string `json:"recording_id" binding:"required"`
}

type consultNoteRequest struct {
	SessionID  string `json:"session_id"`
	TemplateID string `json:"template_id"`
	VoiceStyle string `json:"voice_style"`
	Brain      string `json:"brain"`
	Template   string `json:"template"`
	Transcript string `json:"transcript"`
}

// TranscriptStart opens a segment transcription for a session.
func (h *Handler) TranscriptStart(c *gin.Context) {
	var req transcriptStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	recordingID, err := h.api.StartTranscription(c.Request.Context(), token, req.SessionID)
	if err != nil {
		logutil.Error("failed to start transcription", err, map[string]interface{}{"session_id": req.SessionID})
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recording_id": recordingID})
}

// TranscriptUpload forwards one multipart audio segment.
func (h *Handler) TranscriptUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	sessionID, recordingID := c.PostForm("session_id"), c.PostForm("recording_id")
	if sessionID == "" || recordingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and recording_id are required"})
		return
	}
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	raw, err := h.api.UploadAudio(c.Request.Context(), token, sessionID, recordingID, header.Filename, file, c.PostForm("index"))
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// TranscriptFinish closes a segment transcription.
func (h *Handler) TranscriptFinish(c *gin.Context) {
	var req transcriptFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	raw, err := h.api.FinishTranscription(c.Request.Context(), token, req.SessionID, req.RecordingID)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	h.publish(c, events.TypeTranscriptionFinished, gin.H{"session_id": req.SessionID, "recording_id": req.RecordingID})
	writeRaw(c, http.StatusOK, raw)
}

// TranscriptView returns the session transcript.
func (h *Handler) TranscriptView(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id query parameter is required"})
		return
	}
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	raw, err := h.api.GetTranscript(c.Request.Context(), token, sessionID)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// GenerateNote generates a consult note. An empty body uses the template
// endpoint with the default transcript.
func (h *Handler) GenerateNote(c *gin.Context) {
	var req consultNoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	token, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		logutil.Error("jwt retrieval failed", err, nil)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to retrieve JWT", "detail": "Error: " + err.Error()})
		return
	}
	raw, err := h.api.GenerateConsultNote(c.Request.Context(), token, upstream.ConsultNoteRequest{
		SessionID:  req.SessionID,
		TemplateID: req.TemplateID,
		VoiceStyle: req.VoiceStyle,
		Brain:      req.Brain,
		Template:   req.Template,
		Transcript: req.Transcript,
	})
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// ConsultTemplates lists the consult note templates.
func (h *Handler) ConsultTemplates(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	raw, err := h.api.ConsultNoteTemplates(c.Request.Context(), token)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}
