package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/store"
)

type carePlanRequest struct {
	CarePlan interface{} `json:"care_plan" binding:"required"`
}

type patientNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStore.Error()})
		return false
	}
	return true
}

// GetCarePlan returns the stored care plan for a session.
func (h *Handler) GetCarePlan(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	plan, err := h.store.GetCarePlan(c.Param("session_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "care plan not found"})
		return
	}
	if err != nil {
		logutil.Error("failed to load care plan", err, map[string]interface{}{"session_id": c.Param("session_id")})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SaveCarePlan stores a care plan for a session.
func (h *Handler) SaveCarePlan(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req carePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := c.Param("session_id")
	plan, err := h.store.SaveCarePlan(sessionID, req.CarePlan)
	if err != nil {
		logutil.Error("failed to save care plan", err, map[string]interface{}{"session_id": sessionID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, events.TypeCarePlanSaved, gin.H{"session_id": sessionID})
	c.JSON(http.StatusOK, plan)
}

// GetPatientNotes lists a session's patient notes.
func (h *Handler) GetPatientNotes(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	notes, err := h.store.ListPatientNotes(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session_id"), "notes": notes})
}

// SavePatientNote appends a patient note.
func (h *Handler) SavePatientNote(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req patientNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := h.store.SavePatientNote(c.Param("session_id"), req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ListSessions returns every session with stored data.
func (h *Handler) ListSessions(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	ids, err := h.store.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

// ListHistory returns recent ask-AI records, optionally for one session.
func (h *Handler) ListHistory(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit := h.opts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records, err := h.store.ListAskHistory(c.Query("session_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}
