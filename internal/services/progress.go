package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

// TransitionResult makes the side effects of a status change explicit so
// callers and tests can assert on them instead of inferring from writes.
type TransitionResult struct {
	Task                *types.Task `json:"task"`
	PerformanceCreated  bool        `json:"performance_created"`
	PerformancesDeleted int64       `json:"performances_deleted"`
	ReadinessRecomputed bool        `json:"readiness_recomputed"`
}

type ProgressService interface {
	// ApplyStatusTransition applies one legal status change transactionally:
	// entering COMPLETED synthesizes a Performance record if missing, leaving
	// COMPLETED deletes the task's Performance records, and any change
	// triggers a readiness recompute.
	ApplyStatusTransition(ctx context.Context, taskID uuid.UUID, next types.TaskStatus) (*TransitionResult, error)

	// RecordPerformance appends an explicit graded result for a task.
	RecordPerformance(ctx context.Context, row *types.Performance) (*types.Performance, error)
}

type progressService struct {
	db        *gorm.DB
	log       *logger.Logger
	taskRepo  repos.TaskRepo
	planRepo  repos.StudyPlanRepo
	perfRepo  repos.PerformanceRepo
	readiness ReadinessService
	locker    *PlanLocker
}

func NewProgressService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, planRepo repos.StudyPlanRepo, perfRepo repos.PerformanceRepo, readiness ReadinessService, locker *PlanLocker) ProgressService {
	return &progressService{
		db:        db,
		log:       log.With("service", "ProgressService"),
		taskRepo:  taskRepo,
		planRepo:  planRepo,
		perfRepo:  perfRepo,
		readiness: readiness,
		locker:    locker,
	}
}

func (s *progressService) ApplyStatusTransition(ctx context.Context, taskID uuid.UUID, next types.TaskStatus) (*TransitionResult, error) {
	tasks, err := s.taskRepo.GetByIDs(ctx, nil, []uuid.UUID{taskID})
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, apperr.NotFound("task %s not found", taskID)
	}
	task := tasks[0]
	if task.Status == next {
		return &TransitionResult{Task: task}, nil
	}
	if !task.Status.CanTransitionTo(next) {
		return nil, apperr.DataIntegrity("illegal status transition %s -> %s for task %s", task.Status, next, taskID)
	}

	plans, err := s.planRepo.GetByIDs(ctx, nil, []uuid.UUID{task.PlanID})
	if err != nil {
		return nil, fmt.Errorf("fetch plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, apperr.NotFound("plan %s not found for task %s", task.PlanID, taskID)
	}
	userID := plans[0].UserID

	unlock := s.locker.Lock(task.PlanID)
	defer unlock()

	result := &TransitionResult{Task: task}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.taskRepo.UpdateFields(ctx, tx, task.ID, map[string]interface{}{"status": next}); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if next == types.TaskStatusCompleted {
			existing, err := s.perfRepo.GetByTaskID(ctx, tx, task.ID)
			if err != nil {
				return fmt.Errorf("check existing performance: %w", err)
			}
			if len(existing) == 0 {
				_, err := s.perfRepo.Create(ctx, tx, []*types.Performance{{
					ID:         uuid.New(),
					UserID:     userID,
					TaskID:     task.ID,
					TopicID:    task.TopicID,
					ContentRef: task.ContentRef,
					TimeSpent:  task.Duration,
					Completed:  true,
					Confidence: 3,
				}})
				if err != nil {
					return fmt.Errorf("synthesize performance: %w", err)
				}
				result.PerformanceCreated = true
			}
		}
		if task.Status == types.TaskStatusCompleted && next == types.TaskStatusPending {
			deleted, err := s.perfRepo.FullDeleteByTaskID(ctx, tx, task.ID)
			if err != nil {
				return fmt.Errorf("delete performance on revert: %w", err)
			}
			result.PerformancesDeleted = deleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	task.Status = next

	// Readiness recompute is best-effort; the transition itself already
	// committed.
	if _, err := s.readiness.Compute(ctx, userID); err != nil {
		s.log.Warn("Readiness recompute after transition failed", "user_id", userID, "error", err)
	} else {
		result.ReadinessRecomputed = true
	}
	return result, nil
}

func (s *progressService) RecordPerformance(ctx context.Context, row *types.Performance) (*types.Performance, error) {
	if row == nil {
		return nil, apperr.NotFound("performance row is required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Confidence < 1 || row.Confidence > 5 {
		return nil, apperr.DataIntegrity("confidence %d out of range 1-5", row.Confidence)
	}
	if row.Score != nil && (*row.Score < 0 || *row.Score > 100) {
		return nil, apperr.DataIntegrity("score %.1f out of range 0-100", *row.Score)
	}
	created, err := s.perfRepo.Create(ctx, nil, []*types.Performance{row})
	if err != nil {
		return nil, fmt.Errorf("persist performance: %w", err)
	}
	return created[0], nil
}
