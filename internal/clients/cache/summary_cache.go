package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/utils"
)

// SummaryCache stores generated video summaries keyed by video and summary
// type, so repeat requests replay text instead of spending tokens.
type SummaryCache interface {
	Get(ctx context.Context, videoID, summaryType string) (string, bool, error)
	Set(ctx context.Context, videoID, summaryType, summary string) error
	Delete(ctx context.Context, videoID string) error
}

type summaryCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache connects to REDIS_ADDR. When the variable is unset the
// caller should run without a cache rather than fail startup.
func NewSummaryCache(log *logger.Logger) (SummaryCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttlHours := utils.GetEnvAsInt("SUMMARY_CACHE_TTL_HOURS", 24, log)
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &summaryCache{
		log: log.With("service", "SummaryCache"),
		rdb: rdb,
		ttl: time.Duration(ttlHours) * time.Hour,
	}, nil
}

func summaryKey(videoID, summaryType string) string {
	return fmt.Sprintf("summary:%s:%s", videoID, summaryType)
}

func (c *summaryCache) Get(ctx context.Context, videoID, summaryType string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, summaryKey(videoID, summaryType)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *summaryCache) Set(ctx context.Context, videoID, summaryType, summary string) error {
	return c.rdb.Set(ctx, summaryKey(videoID, summaryType), summary, c.ttl).Err()
}

// Delete drops every cached summary for the video. Called after re-ingestion
// so stale summaries never outlive their transcript.
func (c *summaryCache) Delete(ctx context.Context, videoID string) error {
	keys := []string{
		summaryKey(videoID, "detailed"),
		summaryKey(videoID, "quick"),
	}
	return c.rdb.Del(ctx, keys...).Err()
}
