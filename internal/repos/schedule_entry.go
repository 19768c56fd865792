package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type ScheduleEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ScheduleEntry) (*types.ScheduleEntry, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ScheduleEntry, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ScheduleEntry, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ScheduleEntry, error)
	GetEnabledUserIDs(ctx context.Context, tx *gorm.DB, agentType string) ([]uuid.UUID, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// ClaimNextDue atomically marks one due entry in flight and returns it.
	// An entry already claimed within staleClaim is skipped, which keeps a
	// due occurrence from firing twice across overlapping sweeps.
	ClaimNextDue(ctx context.Context, tx *gorm.DB, now time.Time, staleClaim time.Duration) (*types.ScheduleEntry, error)

	// CompleteRun releases the claim and records the outcome. nextRun advances
	// a RECURRING entry; disable flags a ONE_TIME entry after execution.
	CompleteRun(ctx context.Context, tx *gorm.DB, id uuid.UUID, result string, nextRun *time.Time, disable bool) error
}

type scheduleEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleEntryRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleEntryRepo {
	return &scheduleEntryRepo{db: db, log: baseLog.With("repo", "ScheduleEntryRepo")}
}

func (r *scheduleEntryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ScheduleEntry) (*types.ScheduleEntry, error) {
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

func (r *scheduleEntryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ScheduleEntry
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ScheduleEntry
	if err := transaction.WithContext(ctx).
		Order("priority DESC, next_run ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ScheduleEntry
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

func (r *scheduleEntryRepo) GetEnabledUserIDs(ctx context.Context, tx *gorm.DB, agentType string) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("agent_type = ? AND enabled = ? AND user_id IS NOT NULL", agentType, true).
		Distinct().
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *scheduleEntryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *scheduleEntryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ScheduleEntry{}).Error
}

func (r *scheduleEntryRepo) ClaimNextDue(ctx context.Context, tx *gorm.DB, now time.Time, staleClaim time.Duration) (*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	staleCutoff := now.Add(-staleClaim)
	var claimed *types.ScheduleEntry
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var entry types.ScheduleEntry
		q := txx.Where("enabled = ? AND next_run <= ? AND (claimed_at IS NULL OR claimed_at < ?)",
			true, now, staleCutoff).
			Order("priority DESC, next_run ASC")
		// Row locking exists on postgres only; sqlite serializes writers.
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		qErr := q.First(&entry).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.ScheduleEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"claimed_at": now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		claimed = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *scheduleEntryRepo) CompleteRun(ctx context.Context, tx *gorm.DB, id uuid.UUID, result string, nextRun *time.Time, disable bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"claimed_at":  nil,
		"last_run":    now,
		"last_result": result,
		"updated_at":  now,
	}
	if nextRun != nil {
		updates["next_run"] = *nextRun
	}
	if disable {
		updates["enabled"] = false
	}
	return transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}
