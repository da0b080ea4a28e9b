package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

type stubRerankClient struct {
	scores []float64
	err    error
}

func (s *stubRerankClient) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func TestRerankReordersAndKeepsOriginalScore(t *testing.T) {
	candidates := []Evidence{
		{VectorKey: "k1", Text: "a", NormalizedScore: 0.9},
		{VectorKey: "k2", Text: "b", NormalizedScore: 0.8},
		{VectorKey: "k3", Text: "c", NormalizedScore: 0.7},
	}
	r := NewReranker(logger.NewNop(), &stubRerankClient{scores: []float64{0.1, 0.95, 0.5}})

	out, err := r.Rerank(context.Background(), "q", candidates, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "k2", out[0].VectorKey)
	assert.Equal(t, 0.95, out[0].RerankScore)
	assert.Equal(t, 0.8, out[0].OriginalScore)

	assert.Equal(t, "k3", out[1].VectorKey)
	assert.Equal(t, "k1", out[2].VectorKey)

	// Input order untouched.
	assert.Equal(t, "k1", candidates[0].VectorKey)
	assert.Equal(t, 0.0, candidates[0].RerankScore)
}

func TestRerankTruncatesToTopK(t *testing.T) {
	candidates := []Evidence{
		{VectorKey: "k1", Text: "a", NormalizedScore: 0.9},
		{VectorKey: "k2", Text: "b", NormalizedScore: 0.8},
	}
	r := NewReranker(logger.NewNop(), &stubRerankClient{scores: []float64{0.2, 0.9}})

	out, err := r.Rerank(context.Background(), "q", candidates, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "k2", out[0].VectorKey)
}

func TestRerankEmptyCandidates(t *testing.T) {
	r := NewReranker(logger.NewNop(), &stubRerankClient{})
	out, err := r.Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRerankPropagatesClientError(t *testing.T) {
	r := NewReranker(logger.NewNop(), &stubRerankClient{err: fmt.Errorf("reranker down")})
	_, err := r.Rerank(context.Background(), "q", []Evidence{{Text: "a"}}, 0)
	require.Error(t, err)
}
