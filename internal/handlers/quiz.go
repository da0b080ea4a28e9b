package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

const maxQuizQuestions = 20

type QuizHandler struct {
	log     *logger.Logger
	quizSvc services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizSvc services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quizSvc: quizSvc,
	}
}

type quizGenerateRequest struct {
	VideoIDs     []string `json:"video_ids" binding:"required"`
	QuestionType string   `json:"question_type"`
	// NumQuestions is a pointer so an omitted field (service default) can be
	// told apart from an explicit 0 (rejected).
	NumQuestions *int   `json:"num_questions"`
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
}

// POST /api/quiz/generate
// Generate quiz questions from one or more ingested videos, streamed.
func (h *QuizHandler) Generate(c *gin.Context) {
	var req quizGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.VideoIDs) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("video_ids must not be empty"))
		return
	}
	numQuestions := 0
	if req.NumQuestions != nil {
		if *req.NumQuestions < 1 || *req.NumQuestions > maxQuizQuestions {
			RespondError(c, http.StatusBadRequest, "invalid_num_questions",
				fmt.Errorf("num_questions must be between 1 and %d", maxQuizQuestions))
			return
		}
		numQuestions = *req.NumQuestions
	}
	if req.QuestionType != "" && req.QuestionType != types.QuestionTypeMCQ && req.QuestionType != types.QuestionTypeShortAnswer {
		RespondError(c, http.StatusBadRequest, "invalid_question_type",
			fmt.Errorf("question_type must be %q or %q", types.QuestionTypeMCQ, types.QuestionTypeShortAnswer))
		return
	}
	events := h.quizSvc.Generate(c.Request.Context(), services.QuizRequest{
		VideoIDs:     req.VideoIDs,
		QuestionType: req.QuestionType,
		NumQuestions: numQuestions,
		SessionID:    req.SessionID,
		UserID:       req.UserID,
	})
	writeEventStream(c, h.log, events)
}

// GET /api/quiz/session/:session_id
func (h *QuizHandler) GetBySession(c *gin.Context) {
	sessionID := c.Param("session_id")
	questions, err := h.quizSvc.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "quiz_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"session_id": sessionID, "questions": questions, "count": len(questions)})
}
