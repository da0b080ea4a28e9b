package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

type VideoSummaryHandler struct {
	log        *logger.Logger
	summarySvc services.VideoSummaryService
}

func NewVideoSummaryHandler(log *logger.Logger, summarySvc services.VideoSummaryService) *VideoSummaryHandler {
	return &VideoSummaryHandler{
		log:        log.With("handler", "VideoSummaryHandler"),
		summarySvc: summarySvc,
	}
}

type summarizeRequest struct {
	VideoID         string `json:"video_id" binding:"required"`
	SummaryType     string `json:"summary_type"`
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	ForceRegenerate bool   `json:"force_regenerate"`
}

// POST /api/video-summary/summarize
// Stream a summary for one ingested video, serving from cache when fresh.
func (h *VideoSummaryHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.SummaryType != "" && req.SummaryType != services.SummaryTypeDetailed && req.SummaryType != services.SummaryTypeQuick {
		RespondError(c, http.StatusBadRequest, "invalid_summary_type",
			fmt.Errorf("summary_type must be %q or %q", services.SummaryTypeDetailed, services.SummaryTypeQuick))
		return
	}
	events := h.summarySvc.Summarize(c.Request.Context(), services.SummaryRequest{
		VideoID:         req.VideoID,
		SummaryType:     req.SummaryType,
		SessionID:       req.SessionID,
		UserID:          req.UserID,
		ForceRegenerate: req.ForceRegenerate,
	})
	writeEventStream(c, h.log, events)
}

// GET /api/video-summary/videos
// List ingested videos available for summarization.
func (h *VideoSummaryHandler) ListVideos(c *gin.Context) {
	videos, err := h.summarySvc.ListVideos(c.Request.Context(), 0)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_videos_failed", err)
		return
	}
	RespondOK(c, gin.H{"videos": videos, "count": len(videos)})
}
