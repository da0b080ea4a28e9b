package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/llm"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

// QuizRequest asks for generated questions over one or more ingested videos.
type QuizRequest struct {
	VideoIDs     []string
	QuestionType string
	NumQuestions int
	SessionID    string
	UserID       string
}

// GeneratedQuestion is one model-produced question. MCQ questions carry
// Options/CorrectAnswer/Explanation; short answer questions carry
// ReferenceAnswer/KeyPoints.
type GeneratedQuestion struct {
	Question        string            `json:"question"`
	Options         map[string]string `json:"options,omitempty"`
	CorrectAnswer   string            `json:"correct_answer,omitempty"`
	ReferenceAnswer string            `json:"reference_answer,omitempty"`
	SourceIndex     int               `json:"source_index,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	KeyPoints       []string          `json:"key_points,omitempty"`
}

// QuizPayload is the parsed quiz carried by the terminal done event.
type QuizPayload struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type QuizService interface {
	Generate(ctx context.Context, req QuizRequest) <-chan StreamEvent
	GetBySession(ctx context.Context, sessionID string) ([]*types.QuizQuestion, error)
}

type quizService struct {
	log          *logger.Logger
	chunkRepo    repos.ChunkRepo
	sessionRepo  repos.ChatSessionRepo
	questionRepo repos.QuizQuestionRepo
	llm          llm.Client

	maxSourceChunks int
}

func NewQuizService(
	log *logger.Logger,
	chunkRepo repos.ChunkRepo,
	sessionRepo repos.ChatSessionRepo,
	questionRepo repos.QuizQuestionRepo,
	llmClient llm.Client,
	maxSourceChunks int,
) QuizService {
	if maxSourceChunks <= 0 {
		maxSourceChunks = 100
	}
	return &quizService{
		log:             log.With("service", "QuizService"),
		chunkRepo:       chunkRepo,
		sessionRepo:     sessionRepo,
		questionRepo:    questionRepo,
		llm:             llmClient,
		maxSourceChunks: maxSourceChunks,
	}
}

func (s *quizService) GetBySession(ctx context.Context, sessionID string) ([]*types.QuizQuestion, error) {
	return s.questionRepo.GetBySessionID(ctx, nil, sessionID)
}

func (s *quizService) Generate(ctx context.Context, req QuizRequest) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		s.run(ctx, req, out)
	}()
	return out
}

const defaultNumQuestions = 5

func (s *quizService) run(ctx context.Context, req QuizRequest, out chan<- StreamEvent) {
	questionType := req.QuestionType
	if questionType == "" {
		questionType = types.QuestionTypeMCQ
	}
	if req.NumQuestions < 1 {
		req.NumQuestions = defaultNumQuestions
	}
	log := s.log.With("video_ids", strings.Join(req.VideoIDs, ","), "question_type", questionType)

	chunks, err := s.chunkRepo.GetByVideoIDs(ctx, nil, req.VideoIDs, s.maxSourceChunks)
	if err != nil {
		log.Error("Chunk load failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not load content for the requested videos."))
		return
	}
	if len(chunks) == 0 {
		emit(ctx, out, errorEvent("No ingested content found for the requested videos."))
		return
	}

	session, err := s.ensureSession(ctx, req)
	if err != nil {
		log.Error("Session lookup failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not open a session for this quiz."))
		return
	}

	sources := formatChunkSources(chunks)
	var userPrompt string
	if questionType == types.QuestionTypeShortAnswer {
		userPrompt = buildShortAnswerPrompt(req.NumQuestions, sources)
	} else {
		userPrompt = buildMCQPrompt(req.NumQuestions, sources)
	}

	full, err := s.llm.StreamChat(ctx, []llm.Message{
		{Role: "system", Content: quizSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, func(delta string) error {
		if !emit(ctx, out, tokenEvent(delta)) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Quiz stream canceled by client")
			return
		}
		log.Error("Quiz generation failed", "error", err.Error())
		emit(ctx, out, errorEvent("Quiz generation failed before completing."))
		return
	}

	payload, err := parseQuizPayload(full)
	if err != nil {
		log.Error("Quiz response parse failed", "error", err.Error())
		emit(ctx, out, errorEvent("The model did not return a valid quiz. Please try again."))
		return
	}

	if err = s.persistQuestions(ctx, session.ID, req, questionType, payload); err != nil {
		log.Error("Quiz persist failed", "error", err.Error())
		emit(ctx, out, errorEvent("The quiz was generated but could not be saved."))
		return
	}
	if err = s.sessionRepo.Touch(ctx, nil, session.ID); err != nil {
		log.Warn("Session touch failed", "error", err.Error())
	}

	emit(ctx, out, StreamEvent{
		Type:      EventDone,
		SessionID: session.ID,
		Quiz:      payload,
	})
}

func (s *quizService) ensureSession(ctx context.Context, req QuizRequest) (*types.ChatSession, error) {
	if req.SessionID != "" {
		return s.sessionRepo.GetByID(ctx, nil, req.SessionID)
	}
	return s.sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID:       newSessionID(),
		UserID:   userIDOrDefault(req.UserID),
		TaskType: types.TaskTypeQuiz,
		Title:    fmt.Sprintf("Quiz (%d questions)", req.NumQuestions),
	})
}

func (s *quizService) persistQuestions(ctx context.Context, sessionID string, req QuizRequest, questionType string, payload *QuizPayload) error {
	var videoID *string
	if len(req.VideoIDs) == 1 {
		videoID = &req.VideoIDs[0]
	}

	rows := make([]*types.QuizQuestion, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		row := &types.QuizQuestion{
			SessionID:    sessionID,
			VideoID:      videoID,
			QuestionType: questionType,
			Question:     q.Question,
			Explanation:  q.Explanation,
		}
		if questionType == types.QuestionTypeShortAnswer {
			row.CorrectAnswer = q.ReferenceAnswer
		} else {
			row.CorrectAnswer = q.CorrectAnswer
		}
		if len(q.Options) > 0 {
			if raw, marshalErr := json.Marshal(q.Options); marshalErr == nil {
				row.Options = datatypes.JSON(raw)
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := s.questionRepo.Create(ctx, nil, rows)
	return err
}

// parseQuizPayload decodes the model output, tolerating a ```json fence
// around the JSON body.
func parseQuizPayload(raw string) (*QuizPayload, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload QuizPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode quiz json: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("quiz json has no questions")
	}
	return &payload, nil
}

// formatChunkSources numbers chunks [1..N] the same way retrieval evidence
// is numbered, so source_index values in questions line up.
func formatChunkSources(chunks []*types.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] [%s - %s]:\n%s",
			i+1, formatClock(c.StartTime), formatClock(c.EndTime), c.Text)
	}
	return b.String()
}
