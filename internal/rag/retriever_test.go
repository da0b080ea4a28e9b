package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/qdrant"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

type stubChunkRepo struct {
	rows []repos.ChunkSearchRow
	err  error
}

func (s *stubChunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	return chunks, nil
}
func (s *stubChunkRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	return nil
}
func (s *stubChunkRepo) GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string, limit int) ([]*types.Chunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) GetByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []string, limit int) ([]*types.Chunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) CountByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (int64, error) {
	return 0, nil
}
func (s *stubChunkRepo) SearchByText(ctx context.Context, tx *gorm.DB, query string, limit int) ([]repos.ChunkSearchRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Dimension() int { return 3 }
func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type stubVectorStore struct {
	matches []qdrant.Match
	err     error

	gotVideoIDs []string
}

func (s *stubVectorStore) EnsureCollection(ctx context.Context) error            { return nil }
func (s *stubVectorStore) Upsert(ctx context.Context, points []qdrant.Point) error { return nil }
func (s *stubVectorStore) DeleteByVideoID(ctx context.Context, videoID string) error {
	return nil
}
func (s *stubVectorStore) Search(ctx context.Context, vector []float32, limit int, videoIDs []string) ([]qdrant.Match, error) {
	s.gotVideoIDs = videoIDs
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func TestRetrieveFusesBothLegs(t *testing.T) {
	chunkRepo := &stubChunkRepo{rows: []repos.ChunkSearchRow{
		{VideoID: "v1", VideoTitle: "T", VideoURL: "u", StartTime: 0, EndTime: 60, Text: "lexical hit", VectorKey: "kl", RankScore: 4.0},
	}}
	vectors := &stubVectorStore{matches: []qdrant.Match{
		{ID: "kv", Score: 0.9, Payload: qdrant.PointPayload{VideoID: "v1", VideoTitle: "T", VideoURL: "u", StartTime: 60, EndTime: 120, Text: "vector hit"}},
	}}

	r := NewRetriever(logger.NewNop(), chunkRepo, &stubEmbedder{}, vectors)
	out, err := r.Retrieve(context.Background(), "gates", Options{TopK: 10})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "kv", out[0].VectorKey)
	assert.Equal(t, SignalVector, out[0].Signal)
	assert.Equal(t, 0.9, out[0].NormalizedScore)
	assert.Equal(t, "kl", out[1].VectorKey)
	assert.Equal(t, 0.4, out[1].NormalizedScore)
}

func TestRetrieveDegradesWhenOneLegFails(t *testing.T) {
	chunkRepo := &stubChunkRepo{err: fmt.Errorf("fts index gone")}
	vectors := &stubVectorStore{matches: []qdrant.Match{
		{ID: "kv", Score: 0.8, Payload: qdrant.PointPayload{VideoID: "v1", Text: "vector hit"}},
	}}

	r := NewRetriever(logger.NewNop(), chunkRepo, &stubEmbedder{}, vectors)
	out, err := r.Retrieve(context.Background(), "gates", Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "kv", out[0].VectorKey)
}

func TestRetrieveFailsWhenBothLegsFail(t *testing.T) {
	chunkRepo := &stubChunkRepo{err: fmt.Errorf("fts index gone")}
	vectors := &stubVectorStore{err: fmt.Errorf("qdrant unavailable")}

	r := NewRetriever(logger.NewNop(), chunkRepo, &stubEmbedder{}, vectors)
	_, err := r.Retrieve(context.Background(), "gates", Options{})
	require.Error(t, err)
}

func TestRetrievePassesVideoFilterToVectorLeg(t *testing.T) {
	vectors := &stubVectorStore{}
	r := NewRetriever(logger.NewNop(), &stubChunkRepo{}, &stubEmbedder{}, vectors)

	_, err := r.Retrieve(context.Background(), "gates", Options{VideoIDs: []string{"v1", "v2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, vectors.gotVideoIDs)
}

func TestRetrieveBothLegsEmptyIsNotAnError(t *testing.T) {
	r := NewRetriever(logger.NewNop(), &stubChunkRepo{}, &stubEmbedder{}, &stubVectorStore{})
	out, err := r.Retrieve(context.Background(), "gates", Options{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
