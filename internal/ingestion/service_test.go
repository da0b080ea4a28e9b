package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/qdrant"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

type fakeDownloader struct {
	result *DownloadResult
	err    error
}

func (f *fakeDownloader) Download(ctx context.Context, videoURL string) (*DownloadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.URL = videoURL
	return &out, nil
}

type fakeTranscriber struct {
	transcript *Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

type fakeVectorStore struct {
	upserted [][]qdrant.Point
	deleted  []string
	err      error
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeVectorStore) Upsert(ctx context.Context, points []qdrant.Point) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, points)
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, limit int, videoIDs []string) ([]qdrant.Match, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteByVideoID(ctx context.Context, videoID string) error {
	f.deleted = append(f.deleted, videoID)
	return nil
}

type ingestFixture struct {
	svc     Service
	db      *gorm.DB
	vectors *fakeVectorStore
	chunks  repos.ChunkRepo
	videos  repos.VideoRepo
}

func newIngestFixture(t *testing.T, downloader Downloader, transcriber Transcriber, embedErr error) *ingestFixture {
	t.Helper()
	log := logger.NewNop()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Video{}, &types.Chunk{}))

	videoRepo := repos.NewVideoRepo(db, log)
	chunkRepo := repos.NewChunkRepo(db, log)
	vectors := &fakeVectorStore{}

	svc, err := NewService(log, ServiceDeps{
		DB:             db,
		VideoRepo:      videoRepo,
		ChunkRepo:      chunkRepo,
		Downloader:     downloader,
		Transcriber:    transcriber,
		Embedder:       &fakeEmbedder{err: embedErr},
		Vectors:        vectors,
		TranscriptsDir: t.TempDir(),
	})
	require.NoError(t, err)

	return &ingestFixture{svc: svc, db: db, vectors: vectors, chunks: chunkRepo, videos: videoRepo}
}

func testDownloader() *fakeDownloader {
	return &fakeDownloader{result: &DownloadResult{
		VideoID:   "vid123",
		Title:     "Intro to LSTMs",
		Duration:  90,
		AudioPath: "/tmp/vid123.m4a",
	}}
}

func testTranscriber() *fakeTranscriber {
	return &fakeTranscriber{transcript: &Transcript{
		Text: "first second third",
		Segments: []Segment{
			{Start: 0, End: 30, Text: "first"},
			{Start: 30, End: 60, Text: "second"},
			{Start: 60, End: 90, Text: "third"},
		},
	}}
}

func TestIngestStoresVideoChunksAndVectors(t *testing.T) {
	f := newIngestFixture(t, testDownloader(), testTranscriber(), nil)
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "vid123", res.VideoID)
	assert.Equal(t, 2, res.ChunksCount)

	video, err := f.videos.GetByID(ctx, nil, "vid123")
	require.NoError(t, err)
	assert.Equal(t, "Intro to LSTMs", video.Title)
	assert.NotEmpty(t, video.TranscriptPath)

	stored, err := f.chunks.GetByVideoID(ctx, nil, "vid123", 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, VectorKey("vid123", 0, 0, 60), stored[0].VectorKey)
	assert.Equal(t, VectorKey("vid123", 1, 50, 90), stored[1].VectorKey)

	require.Len(t, f.vectors.upserted, 1)
	points := f.vectors.upserted[0]
	require.Len(t, points, 2)
	assert.Equal(t, stored[0].VectorKey, points[0].ID)
	assert.Equal(t, "vid123", points[0].Payload.VideoID)
	assert.Equal(t, "first second", points[0].Payload.Text)
}

func TestIngestReplacesChunksOnReingest(t *testing.T) {
	transcriber := testTranscriber()
	f := newIngestFixture(t, testDownloader(), transcriber, nil)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.NoError(t, err)

	transcriber.transcript = &Transcript{
		Text:     "only take",
		Segments: []Segment{{Start: 0, End: 40, Text: "only take"}},
	}
	res, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunksCount)

	stored, err := f.chunks.GetByVideoID(ctx, nil, "vid123", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "only take", stored[0].Text)

	count, err := f.chunks.CountByVideoID(ctx, nil, "vid123")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestIngestEmbeddingFailureLeavesStoreClean(t *testing.T) {
	f := newIngestFixture(t, testDownloader(), testTranscriber(), fmt.Errorf("embedding backend down"))
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.Error(t, err)
	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepErrorEmbeddingFailed, stepError.Code)

	_, err = f.videos.GetByID(ctx, nil, "vid123")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, f.vectors.upserted)
}

func TestIngestVectorFailureIsNonFatal(t *testing.T) {
	f := newIngestFixture(t, testDownloader(), testTranscriber(), nil)
	f.vectors.err = fmt.Errorf("qdrant unavailable")
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)

	count, err := f.chunks.CountByVideoID(ctx, nil, "vid123")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRemoveDropsVideoEverywhere(t *testing.T) {
	f := newIngestFixture(t, testDownloader(), testTranscriber(), nil)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "https://www.youtube.com/watch?v=vid123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, "vid123"))

	_, err = f.videos.GetByID(ctx, nil, "vid123")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	count, err := f.chunks.CountByVideoID(ctx, nil, "vid123")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Contains(t, f.vectors.deleted, "vid123")
}

func TestRemoveUnknownVideo(t *testing.T) {
	f := newIngestFixture(t, testDownloader(), testTranscriber(), nil)
	err := f.svc.Remove(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
