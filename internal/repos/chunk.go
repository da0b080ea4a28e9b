package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

// ChunkSearchRow is one lexical full-text hit joined with its video metadata.
// RankScore is the ts_rank relevance score; its scale is unbounded, callers
// normalize it before mixing with other signals.
type ChunkSearchRow struct {
	ID         uint    `gorm:"column:id"`
	VideoID    string  `gorm:"column:video_id"`
	VideoTitle string  `gorm:"column:video_title"`
	VideoURL   string  `gorm:"column:video_url"`
	StartTime  float64 `gorm:"column:start_time"`
	EndTime    float64 `gorm:"column:end_time"`
	Text       string  `gorm:"column:text"`
	VectorKey  string  `gorm:"column:vector_key"`
	RankScore  float64 `gorm:"column:rank_score"`
}

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error)
	DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
	GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string, limit int) ([]*types.Chunk, error)
	GetByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []string, limit int) ([]*types.Chunk, error)
	CountByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (int64, error)
	SearchByText(ctx context.Context, tx *gorm.DB, query string, limit int) ([]ChunkSearchRow, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}

	// Keep batches small because Text is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.Chunk{}).Error
}

func (r *chunkRepo) GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string, limit int) ([]*types.Chunk, error) {
	return r.GetByVideoIDs(ctx, tx, []string{videoID}, limit)
}

func (r *chunkRepo) GetByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []string, limit int) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chunk
	if len(videoIDs) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Order("video_id, start_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) CountByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Chunk{}).
		Where("video_id = ?", videoID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chunkRepo) SearchByText(ctx context.Context, tx *gorm.DB, query string, limit int) ([]ChunkSearchRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []ChunkSearchRow
	if err := transaction.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.video_id,
			c.start_time,
			c.end_time,
			c.text,
			c.vector_key,
			v.title AS video_title,
			v.url AS video_url,
			ts_rank(
				to_tsvector('english', c.text),
				plainto_tsquery('english', ?)
			) AS rank_score
		FROM chunks c
		JOIN videos v ON c.video_id = v.id
		WHERE to_tsvector('english', c.text) @@ plainto_tsquery('english', ?)
		ORDER BY rank_score DESC
		LIMIT ?
	`, query, query, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
