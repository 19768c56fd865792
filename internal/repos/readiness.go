package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type ReadinessRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ReadinessScore) (*types.ReadinessScore, error)
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ReadinessScore, error)
	GetHistoryByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ReadinessScore, error)
}

type readinessRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadinessRepo(db *gorm.DB, baseLog *logger.Logger) ReadinessRepo {
	return &readinessRepo{db: db, log: baseLog.With("repo", "ReadinessRepo")}
}

func (r *readinessRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ReadinessScore) (*types.ReadinessScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *readinessRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ReadinessScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var score types.ReadinessScore
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Find(&score).Error
	if err != nil {
		return nil, err
	}
	if score.ID == uuid.Nil {
		return nil, nil
	}
	return &score, nil
}

func (r *readinessRepo) GetHistoryByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ReadinessScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ReadinessScore
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
