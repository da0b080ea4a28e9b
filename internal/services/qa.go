package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/llm"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/rag"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

// QARequest carries one question. SessionID is optional for Answer and
// required for Followup; VideoIDs restricts retrieval when present.
type QARequest struct {
	Query     string
	SessionID string
	UserID    string
	VideoIDs  []string
}

// QAService answers questions over indexed video content with streamed,
// citation-bearing responses.
type QAService interface {
	Answer(ctx context.Context, req QARequest) <-chan StreamEvent
	Followup(ctx context.Context, req QARequest) <-chan StreamEvent
}

type qaService struct {
	log         *logger.Logger
	sessionRepo repos.ChatSessionRepo
	messageRepo repos.ChatMessageRepo
	retriever   rag.Retriever
	reranker    rag.Reranker
	llm         llm.Client
	topK        int
}

const qaHistoryLimit = 10

func NewQAService(
	log *logger.Logger,
	sessionRepo repos.ChatSessionRepo,
	messageRepo repos.ChatMessageRepo,
	retriever rag.Retriever,
	reranker rag.Reranker,
	llmClient llm.Client,
	topK int,
) QAService {
	if topK <= 0 {
		topK = 10
	}
	return &qaService{
		log:         log.With("service", "QAService"),
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		retriever:   retriever,
		reranker:    reranker,
		llm:         llmClient,
		topK:        topK,
	}
}

// emit delivers an event unless the consumer is gone. A false return means
// the client disconnected and the stream should stop.
func emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func citationsFromEvidence(evidence []rag.Evidence) []types.SourceCitation {
	out := make([]types.SourceCitation, len(evidence))
	for i, e := range evidence {
		out[i] = types.SourceCitation{
			VideoID:    e.VideoID,
			VideoTitle: e.VideoTitle,
			VideoURL:   e.VideoURL,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			Text:       e.Text,
			Score:      e.NormalizedScore,
		}
	}
	return out
}

func sourcesJSON(citations []types.SourceCitation) datatypes.JSON {
	raw, err := json.Marshal(citations)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func (s *qaService) Answer(ctx context.Context, req QARequest) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		s.run(ctx, req, out, false)
	}()
	return out
}

func (s *qaService) Followup(ctx context.Context, req QARequest) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		s.run(ctx, req, out, true)
	}()
	return out
}

func (s *qaService) run(ctx context.Context, req QARequest, out chan<- StreamEvent, followup bool) {
	session, err := s.ensureSession(ctx, req)
	if err != nil {
		s.log.Error("Session lookup failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not open a chat session for this question."))
		return
	}
	log := s.log.With("session_id", session.ID)

	var history []*types.ChatMessage
	if followup {
		history, err = s.messageRepo.GetRecentBySessionID(ctx, nil, session.ID, qaHistoryLimit)
		if err != nil {
			log.Error("History load failed", "error", err.Error())
			emit(ctx, out, errorEvent("Could not load the conversation history."))
			return
		}
	}

	evidence, err := s.retriever.Retrieve(ctx, req.Query, rag.Options{
		TopK:     s.topK,
		VideoIDs: req.VideoIDs,
	})
	if err != nil {
		log.Error("Retrieval failed", "error", err.Error())
		emit(ctx, out, errorEvent("Search over the video library failed. Please try again."))
		return
	}
	if len(evidence) == 0 {
		log.Warn("Query matched nothing in the index", "error", rag.ErrNoEvidence.Error(), "videoIDs", req.VideoIDs)
		emit(ctx, out, errorEvent("I couldn't find relevant content in the indexed videos for this question."))
		return
	}

	if s.reranker != nil {
		reranked, rerankErr := s.reranker.Rerank(ctx, req.Query, evidence, s.topK)
		if rerankErr != nil {
			log.Warn("Reranking failed, keeping fused order", "error", rerankErr.Error())
		} else {
			evidence = reranked
		}
	}

	if _, err = s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.RoleUser,
		Content:   req.Query,
	}); err != nil {
		log.Error("User message persist failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not record the question."))
		return
	}

	var userPrompt string
	if followup {
		userPrompt = buildFollowupPrompt(history, evidence, req.Query)
	} else {
		userPrompt = buildQAPrompt(req.Query, evidence)
	}

	full, err := s.llm.StreamChat(ctx, []llm.Message{
		{Role: "system", Content: qaSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, func(delta string) error {
		if !emit(ctx, out, tokenEvent(delta)) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			// Client went away mid-stream; nothing is persisted for this turn.
			log.Info("Stream canceled by client")
			return
		}
		log.Error("Generation stream failed", "error", err.Error())
		emit(ctx, out, errorEvent("Answer generation failed before completing."))
		return
	}

	citations := citationsFromEvidence(evidence)
	if _, err = s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.RoleAssistant,
		Content:   full,
		Sources:   sourcesJSON(citations),
	}); err != nil {
		log.Error("Assistant message persist failed", "error", err.Error())
		emit(ctx, out, errorEvent("The answer finished but could not be saved."))
		return
	}
	if err = s.sessionRepo.Touch(ctx, nil, session.ID); err != nil {
		log.Warn("Session touch failed", "error", err.Error())
	}

	if !emit(ctx, out, StreamEvent{Type: EventSources, Sources: citations}) {
		return
	}
	emit(ctx, out, StreamEvent{
		Type:      EventDone,
		Content:   full,
		SessionID: session.ID,
		Sources:   citations,
	})
}

func (s *qaService) ensureSession(ctx context.Context, req QARequest) (*types.ChatSession, error) {
	if req.SessionID != "" {
		return s.sessionRepo.GetByID(ctx, nil, req.SessionID)
	}
	return s.sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID:       newSessionID(),
		UserID:   userIDOrDefault(req.UserID),
		TaskType: types.TaskTypeQA,
		Title:    sessionTitleFromQuery(req.Query),
	})
}
