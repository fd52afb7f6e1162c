package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/flows"
)

type documentRequest struct {
	DocumentText string `json:"document_text" form:"document_text"`
}

type questionRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// openAudio opens the named multipart file. A missing file yields a nil
// *flows.AudioFile so the flow reports it.
func (h *Handler) openAudio(c *gin.Context, field string) (*flows.AudioFile, func(), error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &flows.AudioFile{Name: header.Filename, Reader: file}, func() { file.Close() }, nil
}

// TranscribeAudio runs the upload-and-transcribe flow on audio_file.
func (h *Handler) TranscribeAudio(c *gin.Context) {
	audio, closeFn, err := h.openAudio(c, "audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeFn()
	payload, status := h.flows.TranscribeAudio(c.Request.Context(), audio, c.PostForm("session_id"))
	c.JSON(status, payload)
}

// FullTranscript transcribes an mp3 and generates a consult note from it.
func (h *Handler) FullTranscript(c *gin.Context) {
	audio, closeFn, err := h.openAudio(c, "audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	defer closeFn()
	payload, status := h.flows.FullTranscript(c.Request.Context(), audio)
	c.JSON(status, payload)
}

// TestAudioTranscription transcribes the bundled sample clip.
func (h *Handler) TestAudioTranscription(c *gin.Context) {
	payload, status := h.flows.AudioSelfTest(c.Request.Context(), h.opts.SampleAudioPath)
	c.JSON(status, payload)
}

// DebugAPI runs the diagnostic report.
func (h *Handler) DebugAPI(c *gin.Context) {
	payload, status := h.flows.DebugReport(c.Request.Context())
	c.JSON(status, payload)
}

// TestJWT previews the upstream token.
func (h *Handler) TestJWT(c *gin.Context) {
	payload, status := h.flows.TokenOverview(c.Request.Context())
	c.JSON(status, payload)
}

// TestSession creates a throwaway session.
func (h *Handler) TestSession(c *gin.Context) {
	payload, status := h.flows.SessionOverview(c.Request.Context())
	c.JSON(status, payload)
}

// ProcessDocument accepts document_text as JSON or form data.
func (h *Handler) ProcessDocument(c *gin.Context) {
	var req documentRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		req.DocumentText = c.PostForm("document_text")
	}
	payload, status := h.flows.ProcessDocument(c.Request.Context(), req.DocumentText)
	c.JSON(status, payload)
}

// AskQuestion answers a patient question.
func (h *Handler) AskQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No JSON data provided"})
		return
	}
	payload, status := h.flows.AskQuestion(c.Request.Context(), req.Question, req.SessionID)
	c.JSON(status, payload)
}

// TestCompleteFlow runs document processing followed by a question.
func (h *Handler) TestCompleteFlow(c *gin.Context) {
	payload, status := h.flows.CompleteFlowTest(c.Request.Context())
	c.JSON(status, payload)
}
