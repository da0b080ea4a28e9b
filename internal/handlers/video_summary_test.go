package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

type stubSummaryService struct {
	called  bool
	lastReq services.SummaryRequest
}

func (s *stubSummaryService) Summarize(ctx context.Context, req services.SummaryRequest) <-chan services.StreamEvent {
	s.called = true
	s.lastReq = req
	out := make(chan services.StreamEvent)
	close(out)
	return out
}

func (s *stubSummaryService) ListVideos(ctx context.Context, limit int) ([]*services.VideoListItem, error) {
	return nil, nil
}

func TestSummarizeRejectsUnknownType(t *testing.T) {
	svc := &stubSummaryService{}
	h := NewVideoSummaryHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Summarize, "/api/video-summary/summarize", `{"video_id": "v1", "summary_type": "long"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_summary_type", decodeError(t, w).Error.Code)
	assert.False(t, svc.called)
}

func TestSummarizeRequiresVideoID(t *testing.T) {
	svc := &stubSummaryService{}
	h := NewVideoSummaryHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Summarize, "/api/video-summary/summarize", `{"summary_type": "quick"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.called)
}

func TestSummarizeForwardsRequest(t *testing.T) {
	svc := &stubSummaryService{}
	h := NewVideoSummaryHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Summarize, "/api/video-summary/summarize",
		`{"video_id": "v1", "summary_type": "quick", "force_regenerate": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.called)
	assert.Equal(t, "v1", svc.lastReq.VideoID)
	assert.Equal(t, services.SummaryTypeQuick, svc.lastReq.SummaryType)
	assert.True(t, svc.lastReq.ForceRegenerate)
}
