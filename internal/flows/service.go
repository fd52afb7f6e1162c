// Package flows implements the multi-step demo orchestrations over the
// upstream API: transcription, care-plan generation from a discharge
// document, patient questions, and the diagnostic self-tests.
package flows

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/store"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

// Upstream is the part of the upstream client the flows use.
type Upstream interface {
	CreateSession(ctx context.Context, jwt string) (string, error)
	StartTranscription(ctx context.Context, jwt, sessionID string) (string, error)
	UploadAudio(ctx context.Context, jwt, sessionID, recordingID, filename string, audio io.Reader, index string) (json.RawMessage, error)
	FinishTranscription(ctx context.Context, jwt, sessionID, recordingID string) (json.RawMessage, error)
	GetTranscript(ctx context.Context, jwt, sessionID string) (json.RawMessage, error)
	ConsultNoteTemplates(ctx context.Context, jwt string) (json.RawMessage, error)
	GenerateConsultNote(ctx context.Context, jwt string, in upstream.ConsultNoteRequest) (json.RawMessage, error)
	AskAI(ctx context.Context, jwt string, in upstream.AskRequest) askai.Result
	AskWithFallbacks(ctx context.Context, jwt string, in upstream.AskRequest) askai.Result
}

// TokenSource hands out bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Recorder persists flow output.
type Recorder interface {
	SaveCarePlan(sessionID string, data interface{}) (*store.CarePlan, error)
	AppendAskHistory(rec *store.AskRecord) error
}

// Options configures a Service.
type Options struct {
	// Credentials are only inspected for presence in diagnostics.
	Credentials upstream.Credentials
}

// Service runs the flows.
type Service struct {
	api    Upstream
	tokens TokenSource
	store  Recorder
	events events.Publisher
	opts   Options
}

// New creates a flow service. rec and pub may be nil.
func New(api Upstream, tokens TokenSource, rec Recorder, pub events.Publisher, opts Options) *Service {
	return &Service{api: api, tokens: tokens, store: rec, events: pub, opts: opts}
}

// AudioFile is an uploaded audio clip. A nil *AudioFile means none was sent.
type AudioFile struct {
	Name   string
	Reader io.Reader
}

// Token returns a bearer token or the 401 payload describing why none is available.
func (s *Service) Token(ctx context.Context) (string, gin.H, int) {
	jwt, err := s.tokens.Token(ctx)
	if err != nil {
		logutil.Error("jwt retrieval failed", err, nil)
		return "", gin.H{
			"success": false,
			"error":   "Authentication failed",
			"details": err.Error(),
		}, http.StatusUnauthorized
	}
	return jwt, nil, http.StatusOK
}

// EnsureSession returns sessionID, creating a session when it is empty.
func (s *Service) EnsureSession(ctx context.Context, jwt, sessionID string) (string, gin.H, int) {
	if sessionID != "" {
		return sessionID, nil, http.StatusOK
	}
	id, err := s.api.CreateSession(ctx, jwt)
	if err != nil {
		logutil.Error("session creation failed", err, nil)
		return "", gin.H{
			"success": false,
			"error":   "Session creation failed",
			"details": upstream.ErrorPayload(err),
		}, http.StatusInternalServerError
	}
	s.publish(ctx, events.TypeSessionCreated, gin.H{"session_id": id})
	return id, nil, http.StatusOK
}

// Ask sends one ask-AI prompt, optionally in fallback mode, and records the
// outcome. A 401 drops the cached token so the next call fetches a new one.
func (s *Service) Ask(ctx context.Context, jwt string, in upstream.AskRequest, fallbacks bool) askai.Result {
	var result askai.Result
	if fallbacks {
		result = s.api.AskWithFallbacks(ctx, jwt, in)
	} else {
		result = s.api.AskAI(ctx, jwt, in)
	}
	if result.StatusCode() == http.StatusUnauthorized {
		s.tokens.Invalidate(ctx)
	}

	rec := &store.AskRecord{
		SessionID:   in.SessionID,
		Command:     in.Command,
		ContentType: in.ContentType,
		Success:     result.OK(),
		StatusCode:  result.StatusCode(),
		Message:     result.Message(),
	}
	if fallbacks {
		rec.ContentType = "fallback"
	}
	if sv, ok := result.Success(); ok {
		rec.Format = string(sv.Format)
	}
	if s.store != nil {
		if err := s.store.AppendAskHistory(rec); err != nil {
			logutil.Error("failed to record ask history", err, map[string]interface{}{"session_id": in.SessionID})
		}
	}

	evtType := events.TypeAskCompleted
	if !result.OK() {
		evtType = events.TypeAskFailed
	}
	s.publish(ctx, evtType, gin.H{
		"session_id": in.SessionID,
		"format":     rec.Format,
		"message":    rec.Message,
	})
	return result
}

func (s *Service) publish(ctx context.Context, typ string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.Event{Type: typ, Data: data}); err != nil {
		logutil.Error("failed to publish event", err, map[string]interface{}{"type": typ})
	}
}

func formatOf(result askai.Result) string {
	if sv, ok := result.Success(); ok {
		return string(sv.Format)
	}
	return "unknown"
}
