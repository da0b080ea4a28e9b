package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

type SessionHandler struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionSvc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:        log.With("handler", "SessionHandler"),
		sessionSvc: sessionSvc,
	}
}

type sessionCreateRequest struct {
	UserID   string `json:"user_id"`
	TaskType string `json:"task_type"`
	Title    string `json:"title"`
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.sessionSvc.Create(c.Request.Context(), req.UserID, req.TaskType, req.Title)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_create_failed", err)
		return
	}
	RespondOK(c, session)
}

// GET /api/sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	summary, err := h.sessionSvc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "session_lookup_failed", err)
		return
	}
	RespondOK(c, summary)
}

// GET /api/sessions?user_id=&task_type=
func (h *SessionHandler) List(c *gin.Context) {
	filter := repos.SessionFilter{
		UserID:   c.Query("user_id"),
		TaskType: c.Query("task_type"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	sessions, err := h.sessionSvc.List(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions, "count": len(sessions)})
}

// DELETE /api/sessions/:session_id
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := h.sessionSvc.Get(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "session_lookup_failed", err)
		return
	}
	if err := h.sessionSvc.Delete(c.Request.Context(), sessionID); err != nil {
		RespondError(c, http.StatusInternalServerError, "session_delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true, "session_id": sessionID})
}
