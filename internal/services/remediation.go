package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

const (
	remediationSessionMinutes = 45
	generalAlertCap           = 10
)

type RemediationResult struct {
	Task         *types.Task  `json:"task"`
	Alert        *types.Alert `json:"alert,omitempty"`
	AlreadyExists bool        `json:"already_exists"`
}

// CleanupReport counts what the dedup/cleanup pass removed or resolved.
type CleanupReport struct {
	DuplicateTasksRemoved int `json:"duplicate_tasks_removed"`
	CollidingTasksRemoved int `json:"colliding_tasks_removed"`
	AlertsResolved        int `json:"alerts_resolved"`
	GeneralAlertsRemoved  int `json:"general_alerts_removed"`
}

type RemediationService interface {
	// ScheduleReview schedules one remediation review session for the topic.
	// Idempotent: an existing pending, non-past remediation review for the
	// topic is returned unchanged.
	ScheduleReview(ctx context.Context, userID, topicID uuid.UUID, triggerAlertID *uuid.UUID, source string) (*RemediationResult, error)

	// TrackEffectiveness appends an audit record correlating a remediation
	// action with subsequent performance.
	TrackEffectiveness(ctx context.Context, userID uuid.UUID, action types.RemediationAction, topicID *uuid.UUID, outcome map[string]any) (*types.Adaptation, error)

	// Cleanup runs the idempotent dedup operations: collapse duplicate
	// pending remediation reviews per topic, collapse date+time+topic
	// collisions, resolve alerts whose task vanished, cap GENERAL alerts.
	Cleanup(ctx context.Context, userID uuid.UUID) (*CleanupReport, error)
}

type remediationService struct {
	db             *gorm.DB
	log            *logger.Logger
	planRepo       repos.StudyPlanRepo
	topicRepo      repos.TopicRepo
	taskRepo       repos.TaskRepo
	alertRepo      repos.AlertRepo
	adaptationRepo repos.AdaptationRepo
	locker         *PlanLocker
	now            func() time.Time
}

func NewRemediationService(db *gorm.DB, log *logger.Logger, planRepo repos.StudyPlanRepo, topicRepo repos.TopicRepo, taskRepo repos.TaskRepo, alertRepo repos.AlertRepo, adaptationRepo repos.AdaptationRepo, locker *PlanLocker) RemediationService {
	return &remediationService{
		db:             db,
		log:            log.With("service", "RemediationService"),
		planRepo:       planRepo,
		topicRepo:      topicRepo,
		taskRepo:       taskRepo,
		alertRepo:      alertRepo,
		adaptationRepo: adaptationRepo,
		locker:         locker,
		now:            time.Now,
	}
}

func (s *remediationService) ScheduleReview(ctx context.Context, userID, topicID uuid.UUID, triggerAlertID *uuid.UUID, source string) (*RemediationResult, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("user %s has no active study plan", userID)
	}
	topics, err := s.topicRepo.GetByIDs(ctx, nil, []uuid.UUID{topicID})
	if err != nil {
		return nil, fmt.Errorf("fetch topic: %w", err)
	}
	if len(topics) == 0 {
		return nil, apperr.NotFound("topic %s not found", topicID)
	}
	topic := topics[0]

	unlock := s.locker.Lock(plan.ID)
	defer unlock()

	now := s.now()
	if existing, err := s.pendingRemediationReview(ctx, plan.ID, topicID, now); err != nil {
		return nil, err
	} else if existing != nil {
		if triggerAlertID != nil {
			s.pointAlertAtTask(ctx, *triggerAlertID, existing.ID)
		}
		return &RemediationResult{Task: existing, AlreadyExists: true}, nil
	}

	availability := decodeAvailability(plan.Availability)
	allTasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	// Remediation is time-sensitive: search opens now, not at the next free
	// stretch of the plan.
	start, end, ok := findNextSlot(availability, allTasks, now, plan.ExamDate, remediationSessionMinutes)
	if !ok {
		return nil, apperr.PlanInfeasible("no open slot for a review session before the exam")
	}

	task := &types.Task{
		ID:          uuid.New(),
		PlanID:      plan.ID,
		Title:       fmt.Sprintf("Review: %s", topic.Name),
		Description: fmt.Sprintf("Targeted review session for %s", topic.Name),
		Type:        types.TaskTypeReview,
		Status:      types.TaskStatusPending,
		StartTime:   start,
		EndTime:     end,
		Duration:    remediationSessionMinutes,
		TopicID:     topicID,
		Difficulty:  topic.Difficulty,
		Metadata: encodeJSON(types.TaskMetadata{
			SourceAgent:    source,
			Priority:       "HIGH",
			IsRemediation:  true,
			RelatedAlertID: triggerAlertID,
		}),
	}

	alert := &types.Alert{
		ID:             uuid.New(),
		UserID:         userID,
		PlanID:         &plan.ID,
		Type:           types.AlertTypeRemediation,
		Severity:       types.SeverityLow,
		Message:        fmt.Sprintf("Review session for %s scheduled at %s", topic.Name, start.Format(time.RFC3339)),
		RelatedTaskID:  &task.ID,
		RelatedTopicID: &topicID,
		Metadata:       encodeJSON(types.AlertMetadata{ScheduledTaskID: &task.ID, Source: source}),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoOverlap(ctx, tx, s.taskRepo, plan.ID, start, end, uuid.Nil); err != nil {
			return err
		}
		if _, err := s.taskRepo.Create(ctx, tx, []*types.Task{task}); err != nil {
			return fmt.Errorf("persist review task: %w", err)
		}
		if _, err := s.alertRepo.Create(ctx, tx, []*types.Alert{alert}); err != nil {
			return fmt.Errorf("persist remediation alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if triggerAlertID != nil {
		s.pointAlertAtTask(ctx, *triggerAlertID, task.ID)
	}

	s.log.Info("Scheduled remediation review", "user_id", userID, "topic_id", topicID, "task_id", task.ID, "start", start)
	return &RemediationResult{Task: task, Alert: alert}, nil
}

// pendingRemediationReview finds a pending, non-past, remediation-tagged
// REVIEW task for the topic.
func (s *remediationService) pendingRemediationReview(ctx context.Context, planID, topicID uuid.UUID, now time.Time) (*types.Task, error) {
	candidates, err := s.taskRepo.GetByPlanID(ctx, nil, planID, repos.TaskFilter{
		Statuses: []types.TaskStatus{types.TaskStatusPending},
		TopicID:  topicID,
		Type:     types.TaskTypeReview,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch review tasks: %w", err)
	}
	for _, t := range candidates {
		if t.EndTime.Before(now) {
			continue
		}
		if decodeTaskMetadata(t.Metadata).IsRemediation {
			return t, nil
		}
	}
	return nil, nil
}

func (s *remediationService) pointAlertAtTask(ctx context.Context, alertID, taskID uuid.UUID) {
	alerts, err := s.alertRepo.GetByIDs(ctx, nil, []uuid.UUID{alertID})
	if err != nil || len(alerts) == 0 {
		return
	}
	md := decodeAlertMetadata(alerts[0].Metadata)
	md.ScheduledTaskID = &taskID
	if err := s.alertRepo.UpdateFields(ctx, nil, alertID, map[string]interface{}{
		"metadata": encodeJSON(md),
	}); err != nil {
		s.log.Warn("Failed to point alert at remediation task", "alert_id", alertID, "task_id", taskID, "error", err)
	}
}

func (s *remediationService) TrackEffectiveness(ctx context.Context, userID uuid.UUID, action types.RemediationAction, topicID *uuid.UUID, outcome map[string]any) (*types.Adaptation, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("user %s has no active study plan", userID)
	}
	row := &types.Adaptation{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		Type:        types.AdaptationAddReview,
		Description: fmt.Sprintf("remediation effectiveness: %s", action),
		Reason:      "effectiveness tracking",
		TopicID:     topicID,
		Metadata:    encodeJSON(outcome),
	}
	created, err := s.adaptationRepo.Create(ctx, nil, []*types.Adaptation{row})
	if err != nil {
		return nil, fmt.Errorf("persist effectiveness record: %w", err)
	}
	return created[0], nil
}

func (s *remediationService) Cleanup(ctx context.Context, userID uuid.UUID) (*CleanupReport, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("user %s has no active study plan", userID)
	}

	unlock := s.locker.Lock(plan.ID)
	defer unlock()

	report := &CleanupReport{}
	tasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	removed := map[uuid.UUID]bool{}

	// Collapse pending remediation reviews per topic to the earliest one.
	byTopic := map[uuid.UUID][]*types.Task{}
	for _, t := range tasks {
		if t.Status == types.TaskStatusPending && t.Type == types.TaskTypeReview && decodeTaskMetadata(t.Metadata).IsRemediation {
			byTopic[t.TopicID] = append(byTopic[t.TopicID], t)
		}
	}
	for _, group := range byTopic {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].StartTime.Before(group[j].StartTime) })
		survivor := group[0]
		for _, dup := range group[1:] {
			if err := s.removeTask(ctx, userID, dup, survivor.ID, false); err != nil {
				return nil, err
			}
			removed[dup.ID] = true
			report.DuplicateTasksRemoved++
		}
	}

	// Collapse tasks colliding on the same start time + topic.
	seen := map[string]*types.Task{}
	for _, t := range tasks {
		if removed[t.ID] {
			continue
		}
		key := fmt.Sprintf("%s|%s", t.TopicID, t.StartTime.UTC().Format(time.RFC3339))
		if prior, ok := seen[key]; ok {
			if err := s.removeTask(ctx, userID, t, prior.ID, true); err != nil {
				return nil, err
			}
			removed[t.ID] = true
			report.CollidingTasksRemoved++
			continue
		}
		seen[key] = t
	}

	// Resolve alerts whose target task no longer exists.
	alerts, err := s.alertRepo.GetByUserID(ctx, nil, userID, repos.AlertFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}
	live := map[uuid.UUID]bool{}
	for _, t := range tasks {
		if !removed[t.ID] {
			live[t.ID] = true
		}
	}
	var orphaned []uuid.UUID
	for _, a := range alerts {
		if a.IsResolved || a.RelatedTaskID == nil {
			continue
		}
		if !live[*a.RelatedTaskID] {
			orphaned = append(orphaned, a.ID)
		}
	}
	if len(orphaned) > 0 {
		if err := s.alertRepo.ResolveByIDs(ctx, nil, orphaned); err != nil {
			return nil, fmt.Errorf("resolve orphaned alerts: %w", err)
		}
		report.AlertsResolved += len(orphaned)
	}

	// Cap GENERAL alerts to the most recent N.
	general, err := s.alertRepo.GetByUserID(ctx, nil, userID, repos.AlertFilter{Type: types.AlertTypeGeneral})
	if err != nil {
		return nil, fmt.Errorf("fetch general alerts: %w", err)
	}
	if len(general) > generalAlertCap {
		var excess []uuid.UUID
		for _, a := range general[generalAlertCap:] {
			excess = append(excess, a.ID)
		}
		if err := s.alertRepo.FullDeleteByIDs(ctx, nil, excess); err != nil {
			return nil, fmt.Errorf("delete excess general alerts: %w", err)
		}
		report.GeneralAlertsRemoved = len(excess)
	}

	s.log.Info("Remediation cleanup finished",
		"user_id", userID,
		"duplicates_removed", report.DuplicateTasksRemoved,
		"collisions_removed", report.CollidingTasksRemoved,
		"alerts_resolved", report.AlertsResolved)
	return report, nil
}

// removeTask hard-deletes a duplicate task and re-points every alert that
// referenced it at the survivor. resolve additionally closes those alerts
// (the duplicate-collision path per the dedup contract).
func (s *remediationService) removeTask(ctx context.Context, userID uuid.UUID, dup *types.Task, survivorID uuid.UUID, resolve bool) error {
	refs, err := s.alertRepo.GetByUserID(ctx, nil, userID, repos.AlertFilter{TaskID: dup.ID})
	if err != nil {
		return fmt.Errorf("fetch alerts for duplicate task: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.taskRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{dup.ID}); err != nil {
			return fmt.Errorf("delete duplicate task: %w", err)
		}
		for _, a := range refs {
			md := decodeAlertMetadata(a.Metadata)
			md.ScheduledTaskID = &survivorID
			updates := map[string]interface{}{
				"related_task_id": survivorID,
				"metadata":        encodeJSON(md),
			}
			if resolve && !a.IsResolved {
				updates["is_resolved"] = true
				updates["resolved_at"] = s.now()
			}
			if err := s.alertRepo.UpdateFields(ctx, tx, a.ID, updates); err != nil {
				return fmt.Errorf("repoint alert %s: %w", a.ID, err)
			}
		}
		return nil
	})
}
