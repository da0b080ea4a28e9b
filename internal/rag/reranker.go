package rag

import (
	"context"
	"sort"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/rerank"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

// Reranker re-sorts fused candidates by cross-encoder relevance. The fused
// score survives on each candidate as OriginalScore.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Evidence, topK int) ([]Evidence, error)
}

type reranker struct {
	log    *logger.Logger
	client rerank.Client
}

func NewReranker(log *logger.Logger, client rerank.Client) Reranker {
	return &reranker{
		log:    log.With("service", "Reranker"),
		client: client,
	}
}

func (r *reranker) Rerank(ctx context.Context, query string, candidates []Evidence, topK int) ([]Evidence, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := r.client.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	out := make([]Evidence, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].OriginalScore = out[i].NormalizedScore
		out[i].RerankScore = scores[i]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankScore > out[j].RerankScore
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}
