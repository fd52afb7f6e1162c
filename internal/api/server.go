package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP server wiring.
type Options struct {
	APIToken         string
	CORSAllowOrigins []string
}

// Server wraps the Gin engine and associated configuration.
type Server struct {
	engine *gin.Engine
}

// NewServer constructs a Server with all HTTP routes configured.
func NewServer(handler *handlers.Handler, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), corsMiddleware(opts.CORSAllowOrigins), metricsMiddleware(), requestLogger())

	// Health + meta
	engine.GET("/", handler.Home)
	engine.GET("/health", handler.Health)
	engine.GET("/healthz", handler.Healthz)
	engine.GET("/env-check", handler.EnvCheck)
	engine.GET("/openapi", handler.OpenAPISpec)
	engine.GET("/events", handler.StreamEvents)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/get-token", handler.GetToken)

	// Sessions
	engine.POST("/sessions", handler.CreateSession)
	engine.GET("/sessions/:id", handler.GetSession)
	engine.PATCH("/sessions/:id", handler.UpdateSession)

	// Transcription + consult notes
	engine.POST("/transcript/start", handler.TranscriptStart)
	engine.POST("/transcript/upload", handler.TranscriptUpload)
	engine.POST("/transcript/finish", handler.TranscriptFinish)
	engine.GET("/transcript/view", handler.TranscriptView)
	engine.POST("/generate-note", handler.GenerateNote)
	engine.GET("/consult-templates", handler.ConsultTemplates)

	// Ask AI
	engine.POST("/ask_heidi", handler.AskHeidi)
	engine.POST("/ask_heidi_enhanced", handler.AskHeidiEnhanced)

	// Demo flows
	engine.GET("/demo", handler.DemoIndex)
	engine.GET("/debug-api", handler.DebugAPI)
	engine.GET("/test-jwt", handler.TestJWT)
	engine.GET("/test-session", handler.TestSession)
	engine.POST("/transcribe-audio", handler.TranscribeAudio)
	engine.POST("/process-document", handler.ProcessDocument)
	engine.POST("/ask-question", handler.AskQuestion)
	engine.POST("/test-complete-flow", handler.TestCompleteFlow)
	engine.POST("/test-audio-transcription", handler.TestAudioTranscription)
	engine.POST("/demo/full-transcript", handler.FullTranscript)

	// Demo storage
	engine.GET("/sessions-stored", handler.ListSessions)
	engine.GET("/care-plans/:session_id", handler.GetCarePlan)
	engine.GET("/patient-notes/:session_id", handler.GetPatientNotes)
	engine.GET("/history", handler.ListHistory)

	protected := engine.Group("/")
	protected.Use(authMiddleware(opts.APIToken))

	protected.POST("/care-plans/:session_id", handler.SaveCarePlan)
	protected.POST("/patient-notes/:session_id", handler.SavePatientNote)

	return &Server{engine: engine}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Engine exposes the underlying Gin engine for advanced use (testing, etc.).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start launches the HTTP server on the provided address.
func (s *Server) Start(addr string) *http.Server {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.engine,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /events streams and ask-AI calls outlive it.
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return srv
}
