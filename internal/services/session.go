package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

// SessionSummary is a session plus its message count.
type SessionSummary struct {
	Session      *types.ChatSession `json:"session"`
	MessageCount int64              `json:"message_count"`
}

// SessionService owns chat session lifecycle across all task types.
type SessionService interface {
	Create(ctx context.Context, userID, taskType, title string) (*types.ChatSession, error)
	Get(ctx context.Context, sessionID string) (*SessionSummary, error)
	List(ctx context.Context, filter repos.SessionFilter) ([]*SessionSummary, error)
	History(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionService struct {
	log         *logger.Logger
	sessionRepo repos.ChatSessionRepo
	messageRepo repos.ChatMessageRepo
}

func NewSessionService(log *logger.Logger, sessionRepo repos.ChatSessionRepo, messageRepo repos.ChatMessageRepo) SessionService {
	return &sessionService{
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
	}
}

func (s *sessionService) Create(ctx context.Context, userID, taskType, title string) (*types.ChatSession, error) {
	if taskType == "" {
		taskType = types.TaskTypeQA
	}
	if userID == "" {
		userID = "default_user"
	}
	if title == "" {
		title = fmt.Sprintf("New %s session", taskType)
	}
	return s.sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID:       uuid.NewString(),
		UserID:   userID,
		TaskType: taskType,
		Title:    title,
	})
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*SessionSummary, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	count, err := s.messageRepo.CountBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionSummary{Session: session, MessageCount: count}, nil
}

func (s *sessionService) List(ctx context.Context, filter repos.SessionFilter) ([]*SessionSummary, error) {
	sessions, err := s.sessionRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		count, countErr := s.messageRepo.CountBySessionID(ctx, nil, session.ID)
		if countErr != nil {
			return nil, countErr
		}
		out = append(out, &SessionSummary{Session: session, MessageCount: count})
	}
	return out, nil
}

func (s *sessionService) History(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, err
	}
	return s.messageRepo.GetBySessionID(ctx, nil, sessionID, limit)
}

func (s *sessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.messageRepo.DeleteBySessionID(ctx, nil, sessionID); err != nil {
		return err
	}
	return s.sessionRepo.DeleteByID(ctx, nil, sessionID)
}

func newSessionID() string {
	return uuid.NewString()
}

func userIDOrDefault(userID string) string {
	if userID == "" {
		return "default_user"
	}
	return userID
}

// sessionTitleFromQuery derives a short session title from the first question.
func sessionTitleFromQuery(query string) string {
	const maxTitleLen = 60
	runes := []rune(query)
	if len(runes) <= maxTitleLen {
		return query
	}
	return string(runes[:maxTitleLen]) + "..."
}
