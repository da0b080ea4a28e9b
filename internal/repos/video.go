package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

type VideoRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Video, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Video, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id string) error
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{db: db, log: baseLog.With("repo", "VideoRepo")}
}

func (r *videoRepo) Upsert(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "url", "duration", "transcript_path", "updated_at"}),
		}).
		Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (r *videoRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var video types.Video
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	q := transaction.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Video{}).Error
}
