// Package handlers provides HTTP request handlers for the scribe bridge API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/flows"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/store"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
	"github.com/oremus-labs/scribe-bridge/internal/validator"
)

// Options configures handler runtime behavior.
type Options struct {
	// Credentials are only inspected for presence.
	Credentials     upstream.Credentials
	SampleAudioPath string
	// HistoryLimit caps GET /history when no limit is requested.
	HistoryLimit int
	// MaxUploadBytes bounds multipart audio uploads.
	MaxUploadBytes int64
}

type upstreamAPI interface {
	flows.Upstream
	GetSession(ctx context.Context, jwt, sessionID string) (json.RawMessage, error)
	UpdateSession(ctx context.Context, jwt, sessionID string, update upstream.SessionUpdate) (json.RawMessage, error)
}

type dataStore interface {
	Ping() error
	GetCarePlan(sessionID string) (*store.CarePlan, error)
	SaveCarePlan(sessionID string, data interface{}) (*store.CarePlan, error)
	SavePatientNote(sessionID, text string) (*store.PatientNote, error)
	ListPatientNotes(sessionID string) ([]store.PatientNote, error)
	ListSessions() ([]string, error)
	ListAskHistory(sessionID string, limit int) ([]store.AskRecord, error)
}

type eventBus interface {
	events.Publisher
	Subscribe(ctx context.Context) (<-chan events.Event, func(), error)
}

type payloadValidator interface {
	Validate(name string, raw []byte) validator.Result
}

// Handler encapsulates dependencies for HTTP handlers.
type Handler struct {
	api       upstreamAPI
	tokens    flows.TokenSource
	flows     *flows.Service
	store     dataStore
	events    eventBus
	validator payloadValidator
	opts      Options
	startedAt time.Time
}

// New creates a new Handler instance. Pass untyped nil for an absent store,
// bus or validator.
func New(api upstreamAPI, tokens flows.TokenSource, svc *flows.Service, st dataStore, bus eventBus, val payloadValidator, opts Options) *Handler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	return &Handler{
		api:       api,
		tokens:    tokens,
		flows:     svc,
		store:     st,
		events:    bus,
		validator: val,
		opts:      opts,
		startedAt: time.Now(),
	}
}

// Home returns the plain-text welcome banner.
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Heidi Hackathon!")
}

// Health lists the main demo endpoints.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Scribe bridge server is running",
		"endpoints": []string{
			"/demo",
			"/test-jwt",
			"/test-session",
			"/debug-api",
			"/process-document",
			"/ask-question",
		},
	})
}

// Healthz is the liveness/readiness probe.
func (h *Handler) Healthz(c *gin.Context) {
	status := gin.H{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			logutil.Error("datastore ping failed", err, nil)
			status["status"] = "degraded"
			status["datastore"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["datastore"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}

// EnvCheck reports which upstream credentials are configured.
func (h *Handler) EnvCheck(c *gin.Context) {
	creds := h.opts.Credentials
	vars := gin.H{
		"HEIDI_API_KEY": creds.APIKey != "",
		"HEIDI_EMAIL":   creds.Email != "",
		"HEIDI_USER_ID": creds.UserID != "",
	}
	allSet := creds.APIKey != "" && creds.Email != "" && creds.UserID != ""
	message := "Some environment variables missing"
	if allSet {
		message = "All environment variables set"
	}
	c.JSON(http.StatusOK, gin.H{
		"all_env_vars_set": allSet,
		"env_vars":         vars,
		"message":          message,
	})
}

// DemoIndex describes the demo endpoints.
func (h *Handler) DemoIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name": "scribe-bridge demo",
		"endpoints": gin.H{
			"GET /test-jwt":                  "fetch an upstream token",
			"GET /test-session":              "create a throwaway session",
			"GET /debug-api":                 "credential, token, session and ask-AI checks",
			"POST /process-document":         "turn discharge text into a care plan",
			"POST /ask-question":             "ask a patient question",
			"POST /transcribe-audio":         "transcribe an uploaded audio_file",
			"POST /test-audio-transcription": "transcribe the bundled sample clip",
			"POST /test-complete-flow":       "run the document and question flow",
			"POST /demo/full-transcript":     "transcribe an mp3 and generate a consult note",
		},
	})
}

// GetToken returns the upstream JWT, or an "Error: ..." marker in its place.
func (h *Handler) GetToken(c *gin.Context) {
	token, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		logutil.Error("jwt retrieval failed", err, nil)
		c.JSON(http.StatusOK, gin.H{"jwt": "Error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": token})
}

// writeUpstreamError renders an upstream failure with the upstream status.
func writeUpstreamError(c *gin.Context, err error) {
	c.JSON(upstream.StatusOf(err, http.StatusInternalServerError), upstream.ErrorPayload(err))
}

func writeRaw(c *gin.Context, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

// readJSONObject reads the request body, returning nil when it is empty or
// not a JSON object.
func readJSONObject(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") || !json.Valid(raw) {
		return nil
	}
	if trimmed == "{}" {
		return nil
	}
	return raw
}

var errNoStore = errors.New("datastore is not configured")
