package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/ingestion"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

type IngestionHandler struct {
	log       *logger.Logger
	ingestSvc ingestion.Service
}

func NewIngestionHandler(log *logger.Logger, ingestSvc ingestion.Service) *IngestionHandler {
	return &IngestionHandler{
		log:       log.With("handler", "IngestionHandler"),
		ingestSvc: ingestSvc,
	}
}

type ingestRequest struct {
	VideoURL string `json:"video_url" binding:"required"`
}

// POST /api/ingestion/video
// Run the full pipeline for one video and report the result synchronously.
func (h *IngestionHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.ingestSvc.Ingest(c.Request.Context(), req.VideoURL)
	if err != nil {
		h.log.Error("Ingestion failed", "url", req.VideoURL, "error", err)
		status, code := ingestErrorStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, result)
}

// DELETE /api/ingestion/video/:video_id
// Remove a video, its chunks and its vectors.
func (h *IngestionHandler) Remove(c *gin.Context) {
	videoID := c.Param("video_id")
	if err := h.ingestSvc.Remove(c.Request.Context(), videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "video_not_found", err)
			return
		}
		h.log.Error("Video removal failed", "video_id", videoID, "error", err)
		RespondError(c, http.StatusInternalServerError, "removal_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true, "video_id": videoID})
}

func ingestErrorStatus(err error) (int, string) {
	if errors.Is(err, ingestion.ErrInvalidReference) {
		return http.StatusBadRequest, "invalid_video_url"
	}
	var step *ingestion.StepError
	if errors.As(err, &step) {
		switch step.Code {
		case ingestion.StepErrorDownloadFailed, ingestion.StepErrorTranscriptionFailed, ingestion.StepErrorEmbeddingFailed:
			return http.StatusBadGateway, string(step.Code)
		default:
			return http.StatusInternalServerError, string(step.Code)
		}
	}
	return http.StatusInternalServerError, "ingestion_failed"
}
