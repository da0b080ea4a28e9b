package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

type QAHandler struct {
	log        *logger.Logger
	qaSvc      services.QAService
	sessionSvc services.SessionService
}

func NewQAHandler(log *logger.Logger, qaSvc services.QAService, sessionSvc services.SessionService) *QAHandler {
	return &QAHandler{
		log:        log.With("handler", "QAHandler"),
		qaSvc:      qaSvc,
		sessionSvc: sessionSvc,
	}
}

type qaAskRequest struct {
	Query     string   `json:"query" binding:"required"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	VideoIDs  []string `json:"video_ids"`
}

// POST /api/qa/ask
// Answer a question over indexed videos, streamed as server-sent events.
func (h *QAHandler) Ask(c *gin.Context) {
	var req qaAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	events := h.qaSvc.Answer(c.Request.Context(), services.QARequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		VideoIDs:  req.VideoIDs,
	})
	writeEventStream(c, h.log, events)
}

type qaFollowupRequest struct {
	Query     string   `json:"query" binding:"required"`
	SessionID string   `json:"session_id" binding:"required"`
	UserID    string   `json:"user_id"`
	VideoIDs  []string `json:"video_ids"`
}

// POST /api/qa/followup
// Continue an existing QA session with prior turns as context.
func (h *QAHandler) Followup(c *gin.Context) {
	var req qaFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	events := h.qaSvc.Followup(c.Request.Context(), services.QARequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		VideoIDs:  req.VideoIDs,
	})
	writeEventStream(c, h.log, events)
}

// GET /api/qa/history/:session_id
func (h *QAHandler) History(c *gin.Context) {
	sessionID := c.Param("session_id")
	messages, err := h.sessionSvc.History(c.Request.Context(), sessionID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"session_id": sessionID, "messages": messages})
}
