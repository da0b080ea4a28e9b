package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/llm"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/rag"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

type stubRetriever struct {
	evidence []rag.Evidence
	err      error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, opts rag.Options) ([]rag.Evidence, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evidence, nil
}

type stubLLM struct {
	deltas      []string
	streamErr   error
	gotMessages []llm.Message
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return strings.Join(s.deltas, ""), nil
}

func (s *stubLLM) StreamChat(ctx context.Context, messages []llm.Message, onDelta func(string) error) (string, error) {
	s.gotMessages = messages
	var full strings.Builder
	for _, d := range s.deltas {
		if err := onDelta(d); err != nil {
			return full.String(), err
		}
		full.WriteString(d)
	}
	return full.String(), s.streamErr
}

func openServicesDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Video{}, &types.Chunk{},
		&types.ChatSession{}, &types.ChatMessage{}, &types.QuizQuestion{},
	))
	return db
}

func collectEvents(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func sampleEvidence() []rag.Evidence {
	return []rag.Evidence{
		{VideoID: "v1", VideoTitle: "Lecture", VideoURL: "u", StartTime: 0, EndTime: 60, Text: "gates explained", VectorKey: "k1", NormalizedScore: 0.9, Signal: rag.SignalVector},
		{VideoID: "v1", VideoTitle: "Lecture", VideoURL: "u", StartTime: 50, EndTime: 110, Text: "more detail", VectorKey: "k2", NormalizedScore: 0.4, Signal: rag.SignalLexical},
	}
}

func newQAFixture(t *testing.T, retriever rag.Retriever, client llm.Client) (QAService, *gorm.DB) {
	db := openServicesDB(t)
	log := logger.NewNop()
	svc := NewQAService(
		log,
		repos.NewChatSessionRepo(db, log),
		repos.NewChatMessageRepo(db, log),
		retriever,
		nil,
		client,
		10,
	)
	return svc, db
}

func TestAnswerStreamsTokensSourcesAndDone(t *testing.T) {
	client := &stubLLM{deltas: []string{"A", "B", "C"}}
	svc, db := newQAFixture(t, &stubRetriever{evidence: sampleEvidence()}, client)

	events := collectEvents(t, svc.Answer(context.Background(), QARequest{Query: "what are gates?"}))
	require.Len(t, events, 5)

	assert.Equal(t, EventToken, events[0].Type)
	assert.Equal(t, "A", events[0].Content)
	assert.Equal(t, "B", events[1].Content)
	assert.Equal(t, "C", events[2].Content)

	assert.Equal(t, EventSources, events[3].Type)
	require.Len(t, events[3].Sources, 2)
	assert.Equal(t, "gates explained", events[3].Sources[0].Text)
	assert.Equal(t, 0.9, events[3].Sources[0].Score)

	done := events[4]
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, "ABC", done.Content)
	assert.NotEmpty(t, done.SessionID)
	require.Len(t, done.Sources, 2)

	// Both turns persisted under the new session.
	var messages []types.ChatMessage
	require.NoError(t, db.Where("session_id = ?", done.SessionID).Order("id").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, "what are gates?", messages[0].Content)
	assert.Equal(t, types.RoleAssistant, messages[1].Role)
	assert.Equal(t, "ABC", messages[1].Content)
	assert.NotEmpty(t, messages[1].Sources)

	// Prompt numbers sources [1..N] in rank order.
	require.Len(t, client.gotMessages, 2)
	userPrompt := client.gotMessages[1].Content
	assert.Contains(t, userPrompt, "[1] [00:00 - 01:00]")
	assert.Contains(t, userPrompt, "[2] [00:50 - 01:50]")
	assert.Less(t, strings.Index(userPrompt, "[1]"), strings.Index(userPrompt, "[2]"))
}

func TestAnswerNoEvidenceEmitsSingleErrorEvent(t *testing.T) {
	svc, db := newQAFixture(t, &stubRetriever{}, &stubLLM{deltas: []string{"never"}})

	events := collectEvents(t, svc.Answer(context.Background(), QARequest{Query: "unknown topic"}))
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.NotEmpty(t, events[0].Content)

	// Nothing persisted for the refused turn.
	var count int64
	require.NoError(t, db.Model(&types.ChatMessage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAnswerRetrievalFailureEmitsError(t *testing.T) {
	svc, _ := newQAFixture(t, &stubRetriever{err: fmt.Errorf("both legs down")}, &stubLLM{})

	events := collectEvents(t, svc.Answer(context.Background(), QARequest{Query: "q"}))
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
}

func TestAnswerStreamFailureEmitsTerminalError(t *testing.T) {
	client := &stubLLM{deltas: []string{"partial"}, streamErr: fmt.Errorf("upstream reset")}
	svc, db := newQAFixture(t, &stubRetriever{evidence: sampleEvidence()}, client)

	events := collectEvents(t, svc.Answer(context.Background(), QARequest{Query: "q"}))
	require.Len(t, events, 2)
	assert.Equal(t, EventToken, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)

	// The user turn is recorded, the assistant turn is not.
	var messages []types.ChatMessage
	require.NoError(t, db.Order("id").Find(&messages).Error)
	require.Len(t, messages, 1)
	assert.Equal(t, types.RoleUser, messages[0].Role)
}

func TestFollowupUsesHistoryAndExistingSession(t *testing.T) {
	client := &stubLLM{deltas: []string{"follow-up answer"}}
	svc, db := newQAFixture(t, &stubRetriever{evidence: sampleEvidence()}, client)
	log := logger.NewNop()
	sessionRepo := repos.NewChatSessionRepo(db, log)
	messageRepo := repos.NewChatMessageRepo(db, log)
	ctx := context.Background()

	session, err := sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID: "sess-1", UserID: "u1", TaskType: types.TaskTypeQA, Title: "t",
	})
	require.NoError(t, err)
	_, err = messageRepo.Create(ctx, nil, &types.ChatMessage{
		SessionID: session.ID, Role: types.RoleUser, Content: "what is an LSTM?",
	})
	require.NoError(t, err)
	_, err = messageRepo.Create(ctx, nil, &types.ChatMessage{
		SessionID: session.ID, Role: types.RoleAssistant, Content: "a recurrent network variant",
	})
	require.NoError(t, err)

	events := collectEvents(t, svc.Followup(ctx, QARequest{Query: "and its gates?", SessionID: session.ID}))
	done := events[len(events)-1]
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, session.ID, done.SessionID)

	userPrompt := client.gotMessages[1].Content
	assert.Contains(t, userPrompt, "CONVERSATION HISTORY")
	assert.Contains(t, userPrompt, "what is an LSTM?")
	assert.Contains(t, userPrompt, "a recurrent network variant")
	assert.Contains(t, userPrompt, "and its gates?")
}

func TestFollowupKeepsLatestTurnsInLongSessions(t *testing.T) {
	client := &stubLLM{deltas: []string{"ok"}}
	svc, db := newQAFixture(t, &stubRetriever{evidence: sampleEvidence()}, client)
	log := logger.NewNop()
	sessionRepo := repos.NewChatSessionRepo(db, log)
	messageRepo := repos.NewChatMessageRepo(db, log)
	ctx := context.Background()

	session, err := sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID: "sess-long", UserID: "u1", TaskType: types.TaskTypeQA, Title: "t",
	})
	require.NoError(t, err)
	for i := 1; i <= 12; i++ {
		role := types.RoleUser
		if i%2 == 0 {
			role = types.RoleAssistant
		}
		_, err = messageRepo.Create(ctx, nil, &types.ChatMessage{
			SessionID: session.ID, Role: role, Content: fmt.Sprintf("turn-%02d", i),
		})
		require.NoError(t, err)
	}

	events := collectEvents(t, svc.Followup(ctx, QARequest{Query: "next?", SessionID: session.ID}))
	require.Equal(t, EventDone, events[len(events)-1].Type)

	userPrompt := client.gotMessages[1].Content
	assert.Contains(t, userPrompt, "turn-12")
	assert.Contains(t, userPrompt, "turn-03")
	assert.NotContains(t, userPrompt, "turn-01")
	assert.NotContains(t, userPrompt, "turn-02")
	// Chronological rendering: the older kept turn appears first.
	assert.Less(t, strings.Index(userPrompt, "turn-03"), strings.Index(userPrompt, "turn-12"))
}

func TestFollowupUnknownSessionEmitsError(t *testing.T) {
	svc, _ := newQAFixture(t, &stubRetriever{evidence: sampleEvidence()}, &stubLLM{})

	events := collectEvents(t, svc.Followup(context.Background(), QARequest{Query: "q", SessionID: "missing"}))
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
}
