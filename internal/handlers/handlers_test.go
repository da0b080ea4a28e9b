package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GenyoNguyen/YouTubeLM/internal/ingestion"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

type stubQuizService struct {
	called  bool
	lastReq services.QuizRequest
}

func (s *stubQuizService) Generate(ctx context.Context, req services.QuizRequest) <-chan services.StreamEvent {
	s.called = true
	s.lastReq = req
	out := make(chan services.StreamEvent)
	close(out)
	return out
}

func (s *stubQuizService) GetBySession(ctx context.Context, sessionID string) ([]*types.QuizQuestion, error) {
	return nil, nil
}

type stubIngestService struct {
	result *ingestion.Result
	err    error
	called bool
}

func (s *stubIngestService) Ingest(ctx context.Context, videoURL string) (*ingestion.Result, error) {
	s.called = true
	return s.result, s.err
}

func (s *stubIngestService) Remove(ctx context.Context, videoID string) error {
	return s.err
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	router.POST(path, handler)
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var envelope ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestQuizGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing video_ids", `{}`, "invalid_request"},
		{"empty video_ids", `{"video_ids": []}`, "invalid_request"},
		{"too many questions", `{"video_ids": ["v1"], "num_questions": 50}`, "invalid_num_questions"},
		{"zero questions", `{"video_ids": ["v1"], "num_questions": 0}`, "invalid_num_questions"},
		{"negative questions", `{"video_ids": ["v1"], "num_questions": -1}`, "invalid_num_questions"},
		{"bad question type", `{"video_ids": ["v1"], "question_type": "essay"}`, "invalid_question_type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubQuizService{}
			h := NewQuizHandler(logger.NewNop(), svc)
			w := postJSON(t, h.Generate, "/api/quiz/generate", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error.Code)
			assert.False(t, svc.called)
		})
	}
}

func TestQuizGenerateAcceptsValidRequest(t *testing.T) {
	svc := &stubQuizService{}
	h := NewQuizHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Generate, "/api/quiz/generate", `{"video_ids": ["v1"], "question_type": "mcq", "num_questions": 5}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.called)
	assert.Equal(t, 5, svc.lastReq.NumQuestions)
}

func TestQuizGenerateOmittedCountDefaultsDownstream(t *testing.T) {
	svc := &stubQuizService{}
	h := NewQuizHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Generate, "/api/quiz/generate", `{"video_ids": ["v1"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.called)
	assert.Zero(t, svc.lastReq.NumQuestions)
}

func TestIngestRejectsBadURL(t *testing.T) {
	svc := &stubIngestService{err: ingestion.ErrInvalidReference}
	h := NewIngestionHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Ingest, "/api/ingestion/video", `{"video_url": "https://example.com/clip"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_video_url", decodeError(t, w).Error.Code)
}

func TestIngestMapsStepErrors(t *testing.T) {
	tests := []struct {
		code   ingestion.StepErrorCode
		status int
	}{
		{ingestion.StepErrorDownloadFailed, http.StatusBadGateway},
		{ingestion.StepErrorTranscriptionFailed, http.StatusBadGateway},
		{ingestion.StepErrorEmbeddingFailed, http.StatusBadGateway},
		{ingestion.StepErrorStorageFailed, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			svc := &stubIngestService{err: &ingestion.StepError{Code: tc.code, Cause: errors.New("boom")}}
			h := NewIngestionHandler(logger.NewNop(), svc)
			w := postJSON(t, h.Ingest, "/api/ingestion/video", `{"video_url": "https://youtu.be/abc123"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, string(tc.code), decodeError(t, w).Error.Code)
		})
	}
}

func TestIngestReturnsResult(t *testing.T) {
	svc := &stubIngestService{result: &ingestion.Result{
		VideoID: "abc123", Title: "Intro to LSTMs", ChunksCount: 12, Status: "success",
	}}
	h := NewIngestionHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Ingest, "/api/ingestion/video", `{"video_url": "https://youtu.be/abc123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result ingestion.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "abc123", result.VideoID)
	assert.Equal(t, 12, result.ChunksCount)
	assert.Equal(t, "success", result.Status)
}

func TestIngestRequiresVideoURL(t *testing.T) {
	svc := &stubIngestService{}
	h := NewIngestionHandler(logger.NewNop(), svc)
	w := postJSON(t, h.Ingest, "/api/ingestion/video", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.called)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	router.GET("/healthcheck", HealthCheck)
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
