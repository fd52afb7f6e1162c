package flows

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

// MinDocumentLength is the shortest discharge text accepted.
const MinDocumentLength = 10

// ProcessDocument turns discharge document text into a care plan and stores it.
func (s *Service) ProcessDocument(ctx context.Context, text string) (gin.H, int) {
	if len(strings.TrimSpace(text)) < MinDocumentLength {
		return gin.H{
			"error":            "Document text is too short or empty",
			"received_length":  len(text),
			"minimum_required": MinDocumentLength,
		}, http.StatusBadRequest
	}
	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status := s.EnsureSession(ctx, jwt, "")
	if payload != nil {
		return payload, status
	}

	result := s.Ask(ctx, jwt, upstream.AskRequest{SessionID: sessionID, Command: carePlanPrompt, Content: text}, true)
	if !result.OK() {
		return gin.H{
			"error":      "AI request failed",
			"details":    result.Map(),
			"suggestion": "Try again or check if session is still valid",
		}, http.StatusInternalServerError
	}

	content := extractAIContent(result)
	saved := false
	if s.store != nil {
		if _, err := s.store.SaveCarePlan(sessionID, content); err != nil {
			logutil.Error("failed to store care plan", err, map[string]interface{}{"session_id": sessionID})
		} else {
			saved = true
			s.publish(ctx, events.TypeCarePlanSaved, gin.H{"session_id": sessionID})
		}
	}
	return gin.H{
		"success":         true,
		"care_plan":       content,
		"session_id":      sessionID,
		"extracted_text":  text,
		"response_format": formatOf(result),
		"response_length": len(content),
		"stored":          saved,
	}, http.StatusOK
}

// AskQuestion answers a patient question with the care-assistant prompt.
func (s *Service) AskQuestion(ctx context.Context, question, sessionID string) (gin.H, int) {
	question = strings.TrimSpace(question)
	if question == "" {
		return gin.H{"error": "Question cannot be empty"}, http.StatusBadRequest
	}
	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status = s.EnsureSession(ctx, jwt, sessionID)
	if payload != nil {
		return payload, status
	}

	result := s.Ask(ctx, jwt, upstream.AskRequest{SessionID: sessionID, Command: questionPrompt(question), Content: question}, true)
	if !result.OK() {
		return gin.H{
			"error":   "Failed to get AI response",
			"details": result.Map(),
		}, http.StatusInternalServerError
	}
	return gin.H{
		"success":           true,
		"response":          extractAIContent(result),
		"session_id":        sessionID,
		"question_received": question,
		"response_format":   formatOf(result),
	}, http.StatusOK
}
