package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/types"
)

// AdaptationRepo is append-only; Adaptation rows are audit records.
type AdaptationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Adaptation) ([]*types.Adaptation, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Adaptation, error)
}

type adaptationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdaptationRepo(db *gorm.DB, baseLog *logger.Logger) AdaptationRepo {
	return &adaptationRepo{db: db, log: baseLog.With("repo", "AdaptationRepo")}
}

func (r *adaptationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Adaptation) ([]*types.Adaptation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Adaptation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *adaptationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Adaptation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Adaptation
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
