package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

// Embedder turns text into dense vectors via an OpenAI-compatible embeddings
// endpoint. EMBEDDING_BASE_URL points it at a local TEI/Infinity server
// hosting all-MiniLM-L6-v2 by default.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

type embedder struct {
	log    *logger.Logger
	client *openai.Client
	model  string
	dim    int
}

func NewEmbedder(log *logger.Logger, dim int) (Embedder, error) {
	apiKey := os.Getenv("EMBEDDING_API_KEY")
	if apiKey == "" {
		apiKey = "unused"
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimRight(os.Getenv("EMBEDDING_BASE_URL"), "/"); baseURL != "" {
		cfg.BaseURL = baseURL + "/v1"
	}

	return &embedder{
		log:    log.With("service", "Embedder"),
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    dim,
	}, nil
}

func (e *embedder) Dimension() int { return e.dim }

func (e *embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected=%d got=%d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index out of range: %d", d.Index)
		}
		if e.dim > 0 && len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("embedding dimension mismatch: expected=%d got=%d", e.dim, len(d.Embedding))
		}
		out[d.Index] = d.Embedding
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}
