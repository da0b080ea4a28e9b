package rag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/embedding"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/qdrant"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
)

// Options tunes one retrieval call. Zero values fall back to the defaults.
type Options struct {
	TopK     int
	BM25K    int
	VectorK  int
	VideoIDs []string
}

const (
	defaultTopK = 10
	defaultLegK = 10
)

// Retriever runs hybrid search: a lexical full-text leg against Postgres and
// a cosine-similarity leg against the vector index, fused into one ranked
// deduplicated list.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts Options) ([]Evidence, error)
}

type retriever struct {
	log       *logger.Logger
	chunkRepo repos.ChunkRepo
	embedder  embedding.Embedder
	vectors   qdrant.VectorStore
}

func NewRetriever(log *logger.Logger, chunkRepo repos.ChunkRepo, embedder embedding.Embedder, vectors qdrant.VectorStore) Retriever {
	return &retriever{
		log:       log.With("service", "Retriever"),
		chunkRepo: chunkRepo,
		embedder:  embedder,
		vectors:   vectors,
	}
}

func (r *retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Evidence, error) {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.BM25K <= 0 {
		opts.BM25K = defaultLegK
	}
	if opts.VectorK <= 0 {
		opts.VectorK = defaultLegK
	}

	var (
		lexicalHits []Evidence
		vectorHits  []Evidence
		lexicalErr  error
		vectorErr   error
	)

	// Both legs run concurrently; a failure in one leg degrades to the
	// other leg's results instead of aborting the call.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexicalHits, lexicalErr = r.searchLexical(gctx, query, opts.BM25K)
		return nil
	})
	g.Go(func() error {
		vectorHits, vectorErr = r.searchVector(gctx, query, opts.VectorK, opts.VideoIDs)
		return nil
	})
	_ = g.Wait()

	if lexicalErr != nil {
		r.log.Warn("Lexical search failed, degrading to vector-only", "error", lexicalErr.Error())
	}
	if vectorErr != nil {
		r.log.Warn("Vector search failed, degrading to lexical-only", "error", vectorErr.Error())
	}
	if lexicalErr != nil && vectorErr != nil {
		return nil, fmt.Errorf("both retrieval legs failed: lexical: %v; vector: %w", lexicalErr, vectorErr)
	}

	return Fuse(vectorHits, lexicalHits, opts.VideoIDs, opts.TopK), nil
}

func (r *retriever) searchLexical(ctx context.Context, query string, limit int) ([]Evidence, error) {
	rows, err := r.chunkRepo.SearchByText(ctx, nil, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Evidence, 0, len(rows))
	for _, row := range rows {
		out = append(out, Evidence{
			VideoID:    row.VideoID,
			VideoTitle: row.VideoTitle,
			VideoURL:   row.VideoURL,
			StartTime:  row.StartTime,
			EndTime:    row.EndTime,
			Text:       row.Text,
			VectorKey:  row.VectorKey,
			RawScore:   row.RankScore,
			Signal:     SignalLexical,
		})
	}
	return out, nil
}

func (r *retriever) searchVector(ctx context.Context, query string, limit int, videoIDs []string) ([]Evidence, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d", len(embeddings))
	}

	matches, err := r.vectors.Search(ctx, embeddings[0], limit, videoIDs)
	if err != nil {
		return nil, err
	}
	out := make([]Evidence, 0, len(matches))
	for _, m := range matches {
		out = append(out, Evidence{
			VideoID:    m.Payload.VideoID,
			VideoTitle: m.Payload.VideoTitle,
			VideoURL:   m.Payload.VideoURL,
			StartTime:  m.Payload.StartTime,
			EndTime:    m.Payload.EndTime,
			Text:       m.Payload.Text,
			VectorKey:  m.ID,
			RawScore:   m.Score,
			Signal:     SignalVector,
		})
	}
	return out, nil
}
