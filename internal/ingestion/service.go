package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/cache"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/embedding"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/qdrant"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

// Result summarizes a completed ingestion run.
type Result struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	ChunksCount int    `json:"chunks_count"`
	Status      string `json:"status"`
}

// Service runs the full pipeline: download, transcribe, chunk, embed, store.
// Remove drops a video and everything derived from it from both stores.
type Service interface {
	Ingest(ctx context.Context, videoURL string) (*Result, error)
	Remove(ctx context.Context, videoID string) error
}

type service struct {
	log         *logger.Logger
	db          *gorm.DB
	videoRepo   repos.VideoRepo
	chunkRepo   repos.ChunkRepo
	downloader  Downloader
	transcriber Transcriber
	embedder    embedding.Embedder
	vectors     qdrant.VectorStore

	// summaries is optional; re-ingestion invalidates cached summaries when
	// a cache is configured.
	summaries cache.SummaryCache

	transcriptsDir string
	windowSeconds  float64
	overlapSeconds float64
}

type ServiceDeps struct {
	DB          *gorm.DB
	VideoRepo   repos.VideoRepo
	ChunkRepo   repos.ChunkRepo
	Downloader  Downloader
	Transcriber Transcriber
	Embedder    embedding.Embedder
	Vectors     qdrant.VectorStore
	Summaries   cache.SummaryCache

	TranscriptsDir string
	WindowSeconds  float64
	OverlapSeconds float64
}

func NewService(log *logger.Logger, deps ServiceDeps) (Service, error) {
	switch {
	case deps.DB == nil:
		return nil, fmt.Errorf("db is required")
	case deps.VideoRepo == nil || deps.ChunkRepo == nil:
		return nil, fmt.Errorf("repos are required")
	case deps.Downloader == nil || deps.Transcriber == nil:
		return nil, fmt.Errorf("downloader and transcriber are required")
	case deps.Embedder == nil || deps.Vectors == nil:
		return nil, fmt.Errorf("embedder and vector store are required")
	}

	if deps.TranscriptsDir == "" {
		deps.TranscriptsDir = filepath.Join("ingestion_data", "transcripts")
	}
	if err := os.MkdirAll(deps.TranscriptsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	if deps.WindowSeconds <= 0 {
		deps.WindowSeconds = DefaultChunkWindowSeconds
	}
	if deps.OverlapSeconds < 0 {
		deps.OverlapSeconds = DefaultChunkOverlapSeconds
	}

	return &service{
		log:            log.With("service", "IngestionService"),
		db:             deps.DB,
		videoRepo:      deps.VideoRepo,
		chunkRepo:      deps.ChunkRepo,
		downloader:     deps.Downloader,
		transcriber:    deps.Transcriber,
		embedder:       deps.Embedder,
		vectors:        deps.Vectors,
		summaries:      deps.Summaries,
		transcriptsDir: deps.TranscriptsDir,
		windowSeconds:  deps.WindowSeconds,
		overlapSeconds: deps.OverlapSeconds,
	}, nil
}

func formatTimestamp(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// VectorKey derives the deterministic point id for a chunk. Re-ingesting the
// same video yields the same keys, so vector upserts overwrite in place.
func VectorKey(videoID string, ordinal int, startTime, endTime float64) string {
	seed := fmt.Sprintf("%s_%d_%s_%s", videoID, ordinal, formatTimestamp(startTime), formatTimestamp(endTime))
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(seed)).String()
}

func (s *service) Ingest(ctx context.Context, videoURL string) (*Result, error) {
	download, err := s.downloader.Download(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	videoID := download.VideoID
	log := s.log.With("video_id", videoID)

	transcript, err := s.transcriber.Transcribe(ctx, download.AudioPath)
	if err != nil {
		return nil, err
	}

	transcriptPath := filepath.Join(s.transcriptsDir, videoID+".txt")
	if writeErr := os.WriteFile(transcriptPath, []byte(transcript.Text), 0o644); writeErr != nil {
		log.Warn("Transcript artifact write failed", "path", transcriptPath, "error", writeErr.Error())
		transcriptPath = ""
	}

	chunks := ChunkSegments(transcript.Segments, s.windowSeconds, s.overlapSeconds)
	log.Info("Transcript chunked", "segments", len(transcript.Segments), "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, stepErr(StepErrorEmbeddingFailed, err)
	}

	video := &types.Video{
		ID:             videoID,
		Title:          download.Title,
		URL:            download.URL,
		Duration:       download.Duration,
		TranscriptPath: transcriptPath,
	}

	rows := make([]*types.Chunk, len(chunks))
	points := make([]qdrant.Point, len(chunks))
	for i, c := range chunks {
		key := VectorKey(videoID, i, c.StartTime, c.EndTime)
		rows[i] = &types.Chunk{
			VideoID:   videoID,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Text:      c.Text,
			VectorKey: key,
		}
		points[i] = qdrant.Point{
			ID:     key,
			Vector: vectors[i],
			Payload: qdrant.PointPayload{
				VideoID:    videoID,
				VideoTitle: download.Title,
				VideoURL:   download.URL,
				StartTime:  c.StartTime,
				EndTime:    c.EndTime,
				Text:       c.Text,
			},
		}
	}

	// Full replace inside one transaction: the relational store never holds a
	// mix of old and new chunks for a video.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, txErr := s.videoRepo.Upsert(ctx, tx, video); txErr != nil {
			return txErr
		}
		if txErr := s.chunkRepo.DeleteByVideoID(ctx, tx, videoID); txErr != nil {
			return txErr
		}
		if len(rows) == 0 {
			return nil
		}
		_, txErr := s.chunkRepo.Create(ctx, tx, rows)
		return txErr
	})
	if err != nil {
		return nil, stepErr(StepErrorStorageFailed, err)
	}

	// Vector replace happens after commit. A failure here leaves the index
	// behind the relational store; the next ingest of this video repairs it
	// because point ids are deterministic.
	if len(points) > 0 {
		if delErr := s.vectors.DeleteByVideoID(ctx, videoID); delErr != nil {
			log.Warn("Stale vector cleanup failed", "error", delErr.Error())
		}
		if upErr := s.vectors.Upsert(ctx, points); upErr != nil {
			log.Error("Vector index upsert failed, index is stale for this video", "error", upErr.Error())
		}
	}

	if s.summaries != nil {
		if delErr := s.summaries.Delete(ctx, videoID); delErr != nil {
			log.Warn("Summary cache invalidation failed", "error", delErr.Error())
		}
	}

	log.Info("Ingestion complete", "title", download.Title, "chunks", len(chunks))
	return &Result{
		VideoID:     videoID,
		Title:       download.Title,
		ChunksCount: len(chunks),
		Status:      "success",
	}, nil
}

func (s *service) Remove(ctx context.Context, videoID string) error {
	log := s.log.With("video_id", videoID)

	if _, err := s.videoRepo.GetByID(ctx, nil, videoID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txErr := s.chunkRepo.DeleteByVideoID(ctx, tx, videoID); txErr != nil {
			return txErr
		}
		return s.videoRepo.DeleteByID(ctx, tx, videoID)
	})
	if err != nil {
		return stepErr(StepErrorStorageFailed, err)
	}

	if delErr := s.vectors.DeleteByVideoID(ctx, videoID); delErr != nil {
		log.Error("Vector index cleanup failed, stale points remain", "error", delErr.Error())
	}
	if s.summaries != nil {
		if delErr := s.summaries.Delete(ctx, videoID); delErr != nil {
			log.Warn("Summary cache invalidation failed", "error", delErr.Error())
		}
	}

	log.Info("Video removed")
	return nil
}
