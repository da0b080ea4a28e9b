package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

// Client scores candidate passages against a query using a hosted
// cross-encoder behind a text-embeddings-inference /rerank endpoint.
type Client interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a reranker client for baseURL. Callers should skip
// construction entirely when no reranker is deployed.
func NewClient(log *logger.Logger, baseURL string) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("reranker base URL is required")
	}
	return &client{
		log:        log.With("service", "RerankClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *client) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(rerankRequest{Query: query, Texts: texts}); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rerank http %d: %s", resp.StatusCode, string(raw))
	}

	var results []rerankResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("rerank decode error: %w; raw=%s", err, string(raw))
	}

	scores := make([]float64, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(scores) {
			return nil, fmt.Errorf("rerank index out of range: %d", r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}
