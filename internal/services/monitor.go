package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

const (
	missedRatioAlert     = 0.20
	missedRatioHigh      = 0.30
	lowPerformanceAlert  = 60.0
	lowPerformanceHigh   = 50.0
	lowReadinessAlert    = 65.0
)

type MonitorStats struct {
	TotalTasks         int      `json:"total_tasks"`
	CompletedTasks     int      `json:"completed_tasks"`
	MissedTasks        int      `json:"missed_tasks"`
	MissedRatio        float64  `json:"missed_ratio"`
	AveragePerformance *float64 `json:"average_performance,omitempty"`
}

type MonitorResult struct {
	Stats     MonitorStats          `json:"stats"`
	Alerts    []*types.Alert        `json:"alerts"`
	Readiness *types.ReadinessScore `json:"readiness,omitempty"`
	Summary   string                `json:"summary,omitempty"`
	Degraded  bool                  `json:"degraded,omitempty"`
}

type MonitorService interface {
	// Run compares planned vs. actual task outcomes and raises alerts. A
	// precomputed readiness score skips the internal recompute. Enrichment
	// failure degrades the result, never fails it.
	Run(ctx context.Context, userID uuid.UUID, precomputed *types.ReadinessScore) (*MonitorResult, error)
}

type monitorService struct {
	db         *gorm.DB
	log        *logger.Logger
	planRepo   repos.StudyPlanRepo
	taskRepo   repos.TaskRepo
	perfRepo   repos.PerformanceRepo
	alertRepo  repos.AlertRepo
	readiness  ReadinessService
	summarizer Summarizer
	locker     *PlanLocker
	now        func() time.Time
}

func NewMonitorService(db *gorm.DB, log *logger.Logger, planRepo repos.StudyPlanRepo, taskRepo repos.TaskRepo, perfRepo repos.PerformanceRepo, alertRepo repos.AlertRepo, readiness ReadinessService, summarizer Summarizer, locker *PlanLocker) MonitorService {
	return &monitorService{
		db:         db,
		log:        log.With("service", "MonitorService"),
		planRepo:   planRepo,
		taskRepo:   taskRepo,
		perfRepo:   perfRepo,
		alertRepo:  alertRepo,
		readiness:  readiness,
		summarizer: summarizer,
		locker:     locker,
		now:        time.Now,
	}
}

func (s *monitorService) Run(ctx context.Context, userID uuid.UUID, precomputed *types.ReadinessScore) (*MonitorResult, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("user %s has no active study plan", userID)
	}

	tasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	now := s.now()
	stats := MonitorStats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch {
		case t.Status == types.TaskStatusCompleted:
			stats.CompletedTasks++
		case isMissed(t, now):
			stats.MissedTasks++
		}
	}
	if stats.TotalTasks > 0 {
		stats.MissedRatio = float64(stats.MissedTasks) / float64(stats.TotalTasks)
	}

	perfs, err := s.perfRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch performance: %w", err)
	}
	stats.AveragePerformance = averageGradedScore(perfs)

	readinessScore := precomputed
	if readinessScore == nil {
		readinessScore, err = s.readiness.Compute(ctx, userID)
		if err != nil {
			s.log.Warn("Readiness compute failed during monitor run", "user_id", userID, "error", err)
		}
	}

	candidates := s.evaluateRules(userID, plan.ID, stats, readinessScore)

	unlock := s.locker.Lock(plan.ID)
	var created []*types.Alert
	for _, candidate := range candidates {
		dup, err := s.hasUnresolved(ctx, userID, candidate.Type)
		if err != nil {
			unlock()
			return nil, err
		}
		if dup {
			continue
		}
		rows, err := s.alertRepo.Create(ctx, nil, []*types.Alert{candidate})
		if err != nil {
			unlock()
			return nil, fmt.Errorf("persist alert: %w", err)
		}
		created = append(created, rows...)
	}
	unlock()

	result := &MonitorResult{Stats: stats, Alerts: created, Readiness: readinessScore}
	s.enrich(ctx, result)

	s.log.Info("Monitor run finished",
		"user_id", userID,
		"total_tasks", stats.TotalTasks,
		"missed", stats.MissedTasks,
		"alerts", len(created),
		"degraded", result.Degraded)
	return result, nil
}

// isMissed: a planned task whose window has passed without completion.
func isMissed(t *types.Task, now time.Time) bool {
	if t.Status != types.TaskStatusPending && t.Status != types.TaskStatusInProgress {
		return false
	}
	return t.EndTime.Before(now)
}

func averageGradedScore(perfs []*types.Performance) *float64 {
	var sum float64
	var n int
	for _, p := range perfs {
		if p.Score != nil {
			sum += *p.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// evaluateRules applies the three independent alert rules; all applicable
// ones fire in the same run.
func (s *monitorService) evaluateRules(userID, planID uuid.UUID, stats MonitorStats, readiness *types.ReadinessScore) []*types.Alert {
	var out []*types.Alert
	if stats.TotalTasks > 0 && stats.MissedRatio >= missedRatioAlert {
		severity := types.SeverityMedium
		if stats.MissedRatio >= missedRatioHigh {
			severity = types.SeverityHigh
		}
		out = append(out, &types.Alert{
			ID:       uuid.New(),
			UserID:   userID,
			PlanID:   &planID,
			Type:     types.AlertTypeMissedTask,
			Severity: severity,
			Message:  fmt.Sprintf("%d of %d scheduled tasks were missed (%.0f%%)", stats.MissedTasks, stats.TotalTasks, stats.MissedRatio*100),
			Metadata: encodeJSON(types.AlertMetadata{Source: "monitor", SuggestedAction: "reschedule"}),
		})
	}
	if stats.AveragePerformance != nil && *stats.AveragePerformance < lowPerformanceAlert {
		severity := types.SeverityMedium
		if *stats.AveragePerformance < lowPerformanceHigh {
			severity = types.SeverityHigh
		}
		out = append(out, &types.Alert{
			ID:       uuid.New(),
			UserID:   userID,
			PlanID:   &planID,
			Type:     types.AlertTypeLowPerformance,
			Severity: severity,
			Message:  fmt.Sprintf("average graded performance is %.1f%%", *stats.AveragePerformance),
			Metadata: encodeJSON(types.AlertMetadata{Source: "monitor", SuggestedAction: "adjust_difficulty"}),
		})
	}
	if readiness != nil && readiness.OverallScore < lowReadinessAlert {
		out = append(out, &types.Alert{
			ID:       uuid.New(),
			UserID:   userID,
			PlanID:   &planID,
			Type:     types.AlertTypeGeneral,
			Severity: types.SeverityMedium,
			Message:  fmt.Sprintf("overall readiness is %.1f%%, below the %d%% target", readiness.OverallScore, int(lowReadinessAlert)),
			Metadata: encodeJSON(types.AlertMetadata{Source: "monitor"}),
		})
	}
	return out
}

func (s *monitorService) hasUnresolved(ctx context.Context, userID uuid.UUID, alertType types.AlertType) (bool, error) {
	unresolved := false
	existing, err := s.alertRepo.GetByUserID(ctx, nil, userID, repos.AlertFilter{
		Type:       alertType,
		IsResolved: &unresolved,
	})
	if err != nil {
		return false, fmt.Errorf("check unresolved alerts: %w", err)
	}
	return len(existing) > 0, nil
}

func (s *monitorService) enrich(ctx context.Context, result *MonitorResult) {
	if s.summarizer == nil {
		return
	}
	prompt := fmt.Sprintf(
		"Tasks: %d total, %d completed, %d missed. Alerts raised: %d.",
		result.Stats.TotalTasks, result.Stats.CompletedTasks, result.Stats.MissedTasks, len(result.Alerts))
	summary, err := s.summarizer.Summarize(ctx,
		"You summarize a learner's study progress in two encouraging sentences.",
		prompt)
	if err != nil {
		s.log.Warn("Monitor enrichment failed", "error", err)
		result.Degraded = true
		return
	}
	result.Summary = summary
}
