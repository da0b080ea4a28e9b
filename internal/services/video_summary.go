package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/cache"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/llm"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

const (
	SummaryTypeDetailed = "detailed"
	SummaryTypeQuick    = "quick"
)

// SummaryRequest asks for a streamed summary of one ingested video.
type SummaryRequest struct {
	VideoID         string
	SummaryType     string
	SessionID       string
	UserID          string
	ForceRegenerate bool
}

// VideoListItem is one ingested video plus how many chunks back it.
type VideoListItem struct {
	*types.Video
	NumChunks int64 `json:"num_chunks"`
}

type VideoSummaryService interface {
	Summarize(ctx context.Context, req SummaryRequest) <-chan StreamEvent
	ListVideos(ctx context.Context, limit int) ([]*VideoListItem, error)
}

type videoSummaryService struct {
	log         *logger.Logger
	videoRepo   repos.VideoRepo
	chunkRepo   repos.ChunkRepo
	sessionRepo repos.ChatSessionRepo
	messageRepo repos.ChatMessageRepo
	llm         llm.Client

	// summaries is optional; a nil cache disables the cached fast path.
	summaries cache.SummaryCache

	maxTranscriptChunks int
}

func NewVideoSummaryService(
	log *logger.Logger,
	videoRepo repos.VideoRepo,
	chunkRepo repos.ChunkRepo,
	sessionRepo repos.ChatSessionRepo,
	messageRepo repos.ChatMessageRepo,
	llmClient llm.Client,
	summaries cache.SummaryCache,
	maxTranscriptChunks int,
) VideoSummaryService {
	if maxTranscriptChunks <= 0 {
		maxTranscriptChunks = 200
	}
	return &videoSummaryService{
		log:                 log.With("service", "VideoSummaryService"),
		videoRepo:           videoRepo,
		chunkRepo:           chunkRepo,
		sessionRepo:         sessionRepo,
		messageRepo:         messageRepo,
		llm:                 llmClient,
		summaries:           summaries,
		maxTranscriptChunks: maxTranscriptChunks,
	}
}

func (s *videoSummaryService) ListVideos(ctx context.Context, limit int) ([]*VideoListItem, error) {
	videos, err := s.videoRepo.List(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*VideoListItem, 0, len(videos))
	for _, video := range videos {
		count, countErr := s.chunkRepo.CountByVideoID(ctx, nil, video.ID)
		if countErr != nil {
			return nil, countErr
		}
		out = append(out, &VideoListItem{Video: video, NumChunks: count})
	}
	return out, nil
}

func (s *videoSummaryService) Summarize(ctx context.Context, req SummaryRequest) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		s.run(ctx, req, out)
	}()
	return out
}

// videoInfo rebuilds the metadata payload for a cache hit. A lookup failure
// only drops the metadata, not the cached content.
func (s *videoSummaryService) videoInfo(ctx context.Context, videoID string) *VideoInfo {
	video, err := s.videoRepo.GetByID(ctx, nil, videoID)
	if err != nil {
		s.log.Warn("Video metadata load failed for cached summary", "video_id", videoID, "error", err.Error())
		return nil
	}
	count, err := s.chunkRepo.CountByVideoID(ctx, nil, videoID)
	if err != nil {
		s.log.Warn("Chunk count failed for cached summary", "video_id", videoID, "error", err.Error())
		count = 0
	}
	return &VideoInfo{
		VideoID:         video.ID,
		Title:           video.Title,
		VideoURL:        video.URL,
		Duration:        formatClock(video.Duration),
		DurationSeconds: video.Duration,
		NumChunks:       int(count),
	}
}

func (s *videoSummaryService) run(ctx context.Context, req SummaryRequest, out chan<- StreamEvent) {
	summaryType := req.SummaryType
	if summaryType == "" {
		summaryType = SummaryTypeDetailed
	}
	log := s.log.With("video_id", req.VideoID, "summary_type", summaryType)

	if s.summaries != nil && !req.ForceRegenerate {
		cached, hit, cacheErr := s.summaries.Get(ctx, req.VideoID, summaryType)
		if cacheErr != nil {
			log.Warn("Summary cache read failed", "error", cacheErr.Error())
		} else if hit {
			emit(ctx, out, StreamEvent{
				Type:      EventCached,
				Content:   cached,
				VideoID:   req.VideoID,
				VideoInfo: s.videoInfo(ctx, req.VideoID),
			})
			return
		}
	}

	chunks, err := s.chunkRepo.GetByVideoID(ctx, nil, req.VideoID, s.maxTranscriptChunks)
	if err != nil {
		log.Error("Chunk load failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not load the video transcript."))
		return
	}
	if len(chunks) == 0 {
		emit(ctx, out, errorEvent(fmt.Sprintf("No ingested video found with ID: %s", req.VideoID)))
		return
	}

	video, err := s.videoRepo.GetByID(ctx, nil, req.VideoID)
	if err != nil {
		log.Error("Video load failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not load the video metadata."))
		return
	}

	session, err := s.ensureSession(ctx, req, video.Title)
	if err != nil {
		log.Error("Session lookup failed", "error", err.Error())
		emit(ctx, out, errorEvent("Could not open a session for this summary."))
		return
	}

	info := &VideoInfo{
		VideoID:         video.ID,
		Title:           video.Title,
		VideoURL:        video.URL,
		Duration:        formatClock(video.Duration),
		DurationSeconds: video.Duration,
		NumChunks:       len(chunks),
	}
	if !emit(ctx, out, StreamEvent{Type: EventMetadata, VideoInfo: info}) {
		return
	}

	transcript := buildTimedTranscript(chunks)
	var userPrompt string
	if summaryType == SummaryTypeQuick {
		userPrompt = buildQuickSummaryPrompt(video.Title, transcript)
	} else {
		userPrompt = buildDetailedSummaryPrompt(video.Title, info.Duration, transcript)
	}

	full, err := s.llm.StreamChat(ctx, []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: userPrompt},
	}, func(delta string) error {
		if !emit(ctx, out, tokenEvent(delta)) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Summary stream canceled by client")
			return
		}
		log.Error("Summary generation failed", "error", err.Error())
		emit(ctx, out, errorEvent("Summary generation failed before completing."))
		return
	}

	if _, err = s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.RoleAssistant,
		Content:   full,
	}); err != nil {
		log.Error("Summary persist failed", "error", err.Error())
		emit(ctx, out, errorEvent("The summary finished but could not be saved."))
		return
	}
	if err = s.sessionRepo.Touch(ctx, nil, session.ID); err != nil {
		log.Warn("Session touch failed", "error", err.Error())
	}

	if s.summaries != nil {
		if cacheErr := s.summaries.Set(ctx, req.VideoID, summaryType, full); cacheErr != nil {
			log.Warn("Summary cache write failed", "error", cacheErr.Error())
		}
	}

	emit(ctx, out, StreamEvent{
		Type:      EventDone,
		Content:   full,
		SessionID: session.ID,
		VideoID:   req.VideoID,
		VideoInfo: info,
	})
}

func (s *videoSummaryService) ensureSession(ctx context.Context, req SummaryRequest, videoTitle string) (*types.ChatSession, error) {
	if req.SessionID != "" {
		return s.sessionRepo.GetByID(ctx, nil, req.SessionID)
	}
	title := strings.TrimSpace("Summary: " + videoTitle)
	return s.sessionRepo.Create(ctx, nil, &types.ChatSession{
		ID:       newSessionID(),
		UserID:   userIDOrDefault(req.UserID),
		TaskType: types.TaskTypeVideoSummary,
		Title:    sessionTitleFromQuery(title),
	})
}

// buildTimedTranscript renders chunks as "[MM:SS] text" blocks in time order.
// Chunks arrive ordered by start time from the repo.
func buildTimedTranscript(chunks []*types.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[%s] %s", formatClock(c.StartTime), c.Text))
	}
	return strings.Join(parts, "\n\n")
}
