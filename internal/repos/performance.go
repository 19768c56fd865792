package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type PerformanceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Performance) ([]*types.Performance, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Performance, error)
	GetByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Performance, error)
	GetRecentByUserAndTopic(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, limit int) ([]*types.Performance, error)
	FullDeleteByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (int64, error)
}

type performanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPerformanceRepo(db *gorm.DB, baseLog *logger.Logger) PerformanceRepo {
	return &performanceRepo{db: db, log: baseLog.With("repo", "PerformanceRepo")}
}

func (r *performanceRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Performance) ([]*types.Performance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Performance{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *performanceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Performance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Performance
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *performanceRepo) GetByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Performance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Performance
	if taskID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("task_id = ?", taskID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *performanceRepo) GetRecentByUserAndTopic(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, limit int) ([]*types.Performance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Performance
	if userID == uuid.Nil || topicID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = 5
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *performanceRepo) FullDeleteByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if taskID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&types.Performance{})
	return res.RowsAffected, res.Error
}
