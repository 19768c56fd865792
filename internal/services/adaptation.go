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
	// Hysteresis band for difficulty adjustment: only persistent signals
	// outside the band move a topic's tier, so a single bad quiz cannot
	// oscillate the calendar.
	difficultyLowerBelow = 50.0
	difficultyRaiseAbove = 85.0
	difficultyMinSamples = 3

	weakTopicScoreThreshold = weakAreaThreshold
)

type AdaptationResult struct {
	Adaptations []*types.Adaptation `json:"adaptations"`
	Summary     string              `json:"summary"`
	LLMSummary  string              `json:"llm_summary,omitempty"`
	Degraded    bool                `json:"degraded,omitempty"`
}

type AdaptationService interface {
	// Run applies every applicable adaptation policy in order: reschedule,
	// difficulty, review-add, rebalance. Later policies see the calendar as
	// already mutated by earlier ones. A nil monitor result is recomputed
	// internally.
	Run(ctx context.Context, userID uuid.UUID, monitor *MonitorResult) (*AdaptationResult, error)
}

type adaptationService struct {
	db             *gorm.DB
	log            *logger.Logger
	planRepo       repos.StudyPlanRepo
	topicRepo      repos.TopicRepo
	taskRepo       repos.TaskRepo
	perfRepo       repos.PerformanceRepo
	adaptationRepo repos.AdaptationRepo
	monitor        MonitorService
	remediation    RemediationService
	summarizer     Summarizer
	locker         *PlanLocker
	now            func() time.Time
}

func NewAdaptationService(db *gorm.DB, log *logger.Logger, planRepo repos.StudyPlanRepo, topicRepo repos.TopicRepo, taskRepo repos.TaskRepo, perfRepo repos.PerformanceRepo, adaptationRepo repos.AdaptationRepo, monitor MonitorService, remediation RemediationService, summarizer Summarizer, locker *PlanLocker) AdaptationService {
	return &adaptationService{
		db:             db,
		log:            log.With("service", "AdaptationService"),
		planRepo:       planRepo,
		topicRepo:      topicRepo,
		taskRepo:       taskRepo,
		perfRepo:       perfRepo,
		adaptationRepo: adaptationRepo,
		monitor:        monitor,
		remediation:    remediation,
		summarizer:     summarizer,
		locker:         locker,
		now:            time.Now,
	}
}

func (s *adaptationService) Run(ctx context.Context, userID uuid.UUID, monitor *MonitorResult) (*AdaptationResult, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("user %s has no active study plan", userID)
	}
	if monitor == nil {
		monitor, err = s.monitor.Run(ctx, userID, nil)
		if err != nil {
			return nil, fmt.Errorf("internal monitor run: %w", err)
		}
	}

	availability := decodeAvailability(plan.Availability)
	var adaptations []*types.Adaptation

	rescheduled, err := s.rescheduleMissed(ctx, userID, plan, availability)
	if err != nil {
		return nil, err
	}
	adaptations = append(adaptations, rescheduled...)

	adjusted, err := s.adjustDifficulty(ctx, userID, plan)
	if err != nil {
		return nil, err
	}
	adaptations = append(adaptations, adjusted...)

	reviews, err := s.addReviewSessions(ctx, userID, plan)
	if err != nil {
		return nil, err
	}
	adaptations = append(adaptations, reviews...)

	rebalanced, err := s.rebalanceWorkload(ctx, userID, plan, availability)
	if err != nil {
		return nil, err
	}
	adaptations = append(adaptations, rebalanced...)

	if len(adaptations) > 0 {
		if _, err := s.adaptationRepo.Create(ctx, nil, adaptations); err != nil {
			return nil, fmt.Errorf("persist adaptations: %w", err)
		}
	}

	result := &AdaptationResult{
		Adaptations: adaptations,
		Summary: fmt.Sprintf("%d rescheduled, %d difficulty adjustments, %d review sessions, %d rebalanced",
			len(rescheduled), len(adjusted), len(reviews), len(rebalanced)),
	}
	s.enrich(ctx, result)

	s.log.Info("Adaptation run finished", "user_id", userID, "adaptations", len(adaptations), "degraded", result.Degraded)
	return result, nil
}

// rescheduleMissed moves every missed task to the next open slot that honors
// the plan's weekly availability, capturing the original window on first move.
func (s *adaptationService) rescheduleMissed(ctx context.Context, userID uuid.UUID, plan *types.StudyPlan, availability types.Availability) ([]*types.Adaptation, error) {
	unlock := s.locker.Lock(plan.ID)
	defer unlock()

	tasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	now := s.now()
	var out []*types.Adaptation
	for _, t := range tasks {
		if !isMissed(t, now) {
			continue
		}
		others := excludeTask(tasks, t.ID)
		start, end, ok := findNextSlot(availability, others, now, plan.ExamDate, t.Duration)
		if !ok {
			s.log.Warn("No slot to reschedule missed task", "task_id", t.ID)
			continue
		}
		if err := ensureNoOverlap(ctx, nil, s.taskRepo, plan.ID, start, end, t.ID); err != nil {
			if apperr.IsKind(err, apperr.KindDataIntegrity) {
				s.log.Warn("Reschedule window taken concurrently, leaving task for next run", "task_id", t.ID, "error", err)
				continue
			}
			return nil, err
		}
		updates := map[string]interface{}{
			"start_time": start,
			"end_time":   end,
			"status":     types.TaskStatusPending,
		}
		if t.OriginalStartTime == nil {
			updates["original_start_time"] = t.StartTime
			updates["original_end_time"] = t.EndTime
		}
		if err := s.taskRepo.UpdateFields(ctx, nil, t.ID, updates); err != nil {
			return nil, fmt.Errorf("reschedule task %s: %w", t.ID, err)
		}
		oldStart := t.StartTime
		t.StartTime, t.EndTime = start, end
		t.Status = types.TaskStatusPending
		taskID := t.ID
		topicID := t.TopicID
		out = append(out, &types.Adaptation{
			ID:          uuid.New(),
			UserID:      userID,
			PlanID:      plan.ID,
			Type:        types.AdaptationReschedule,
			Description: fmt.Sprintf("moved %q from %s to %s", t.Title, oldStart.Format(time.RFC3339), start.Format(time.RFC3339)),
			Reason:      "task window passed without completion",
			TaskID:      &taskID,
			TopicID:     &topicID,
		})
	}
	return out, nil
}

// adjustDifficulty shifts a topic's pending tasks one tier when recent
// performance sits persistently outside the hysteresis band.
func (s *adaptationService) adjustDifficulty(ctx context.Context, userID uuid.UUID, plan *types.StudyPlan) ([]*types.Adaptation, error) {
	tasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{
		Statuses: []types.TaskStatus{types.TaskStatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch pending tasks: %w", err)
	}
	topicIDs := map[uuid.UUID]bool{}
	for _, t := range tasks {
		topicIDs[t.TopicID] = true
	}

	var out []*types.Adaptation
	for topicID := range topicIDs {
		recent, err := s.perfRepo.GetRecentByUserAndTopic(ctx, nil, userID, topicID, difficultyMinSamples+2)
		if err != nil {
			return nil, fmt.Errorf("fetch recent performance: %w", err)
		}
		direction := difficultyShift(recent)
		if direction == 0 {
			continue
		}
		for _, t := range tasks {
			if t.TopicID != topicID {
				continue
			}
			next := t.Difficulty.LowerTier()
			reason := "persistently low recent performance"
			if direction > 0 {
				next = t.Difficulty.RaiseTier()
				reason = "persistently high recent performance"
			}
			if next == t.Difficulty {
				continue
			}
			if err := s.taskRepo.UpdateFields(ctx, nil, t.ID, map[string]interface{}{"difficulty": next}); err != nil {
				return nil, fmt.Errorf("adjust difficulty for task %s: %w", t.ID, err)
			}
			prev := t.Difficulty
			t.Difficulty = next
			taskID := t.ID
			tid := topicID
			out = append(out, &types.Adaptation{
				ID:          uuid.New(),
				UserID:      userID,
				PlanID:      plan.ID,
				Type:        types.AdaptationAdjustDifficulty,
				Description: fmt.Sprintf("difficulty of %q changed %s -> %s", t.Title, prev, next),
				Reason:      reason,
				TaskID:      &taskID,
				TopicID:     &tid,
			})
		}
	}
	return out, nil
}

// difficultyShift returns -1 to lower, +1 to raise, 0 inside the band or
// with too few samples.
func difficultyShift(recent []*types.Performance) int {
	var graded []float64
	for _, p := range recent {
		if p.Score != nil {
			graded = append(graded, *p.Score)
		}
	}
	if len(graded) < difficultyMinSamples {
		return 0
	}
	allLow, allHigh := true, true
	for _, score := range graded {
		if score >= difficultyLowerBelow {
			allLow = false
		}
		if score <= difficultyRaiseAbove {
			allHigh = false
		}
	}
	if allLow {
		return -1
	}
	if allHigh {
		return 1
	}
	return 0
}

// addReviewSessions schedules a remediation review for each weak topic that
// lacks a pending one. Slot selection and dedup live in the remediation
// engine.
func (s *adaptationService) addReviewSessions(ctx context.Context, userID uuid.UUID, plan *types.StudyPlan) ([]*types.Adaptation, error) {
	topics, err := s.topicRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch topics: %w", err)
	}
	var out []*types.Adaptation
	for _, topic := range topics {
		recent, err := s.perfRepo.GetRecentByUserAndTopic(ctx, nil, userID, topic.ID, difficultyMinSamples+2)
		if err != nil {
			return nil, fmt.Errorf("fetch recent performance: %w", err)
		}
		if len(recent) == 0 {
			continue
		}
		var sum float64
		for _, p := range recent {
			sum += effectiveScore(p)
		}
		if sum/float64(len(recent)) >= weakTopicScoreThreshold {
			continue
		}
		res, err := s.remediation.ScheduleReview(ctx, userID, topic.ID, nil, "adaptation")
		if err != nil {
			if apperr.IsKind(err, apperr.KindPlanInfeasible) {
				s.log.Warn("No slot for review session", "topic_id", topic.ID)
				continue
			}
			return nil, err
		}
		if res.AlreadyExists {
			continue
		}
		taskID := res.Task.ID
		topicID := topic.ID
		out = append(out, &types.Adaptation{
			ID:          uuid.New(),
			UserID:      userID,
			PlanID:      plan.ID,
			Type:        types.AdaptationAddReview,
			Description: fmt.Sprintf("added review session for weak topic %q", topic.Name),
			Reason:      "recent performance below readiness threshold",
			TaskID:      &taskID,
			TopicID:     &topicID,
		})
	}
	return out, nil
}

// rebalanceWorkload moves the lowest-priority pending tasks off days whose
// scheduled minutes exceed the daily cap.
func (s *adaptationService) rebalanceWorkload(ctx context.Context, userID uuid.UUID, plan *types.StudyPlan, availability types.Availability) ([]*types.Adaptation, error) {
	unlock := s.locker.Lock(plan.ID)
	defer unlock()

	tasks, err := s.taskRepo.GetByPlanID(ctx, nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	dailyCap := availability.MinutesPerDay()
	if dailyCap <= 0 {
		return nil, nil
	}

	now := s.now()
	today := dayKey(now)
	// Past days are spent load, not schedulable load, and a day with nothing
	// movable must not stall the scan for later overloaded days.
	unmovable := map[string]bool{}
	var out []*types.Adaptation
	for {
		minutes := scheduledMinutesByDay(tasks)
		overloadedDay := ""
		for day, m := range minutes {
			if m <= dailyCap || day < today || unmovable[day] {
				continue
			}
			if overloadedDay == "" || day < overloadedDay {
				overloadedDay = day
			}
		}
		if overloadedDay == "" {
			break
		}

		victim := pickLowestPriorityPending(tasks, overloadedDay, now)
		if victim == nil {
			unmovable[overloadedDay] = true
			continue
		}
		others := excludeTask(tasks, victim.ID)
		start, end, ok := findNextSlot(availability, others, now, plan.ExamDate, victim.Duration)
		if !ok || dayKey(start) == overloadedDay {
			unmovable[overloadedDay] = true
			continue
		}
		if err := ensureNoOverlap(ctx, nil, s.taskRepo, plan.ID, start, end, victim.ID); err != nil {
			if apperr.IsKind(err, apperr.KindDataIntegrity) {
				s.log.Warn("Rebalance window taken concurrently", "task_id", victim.ID, "error", err)
				unmovable[overloadedDay] = true
				continue
			}
			return nil, err
		}
		updates := map[string]interface{}{
			"start_time": start,
			"end_time":   end,
		}
		if victim.OriginalStartTime == nil {
			updates["original_start_time"] = victim.StartTime
			updates["original_end_time"] = victim.EndTime
		}
		if err := s.taskRepo.UpdateFields(ctx, nil, victim.ID, updates); err != nil {
			return nil, fmt.Errorf("rebalance task %s: %w", victim.ID, err)
		}
		victim.StartTime, victim.EndTime = start, end
		taskID := victim.ID
		topicID := victim.TopicID
		out = append(out, &types.Adaptation{
			ID:          uuid.New(),
			UserID:      userID,
			PlanID:      plan.ID,
			Type:        types.AdaptationRebalance,
			Description: fmt.Sprintf("moved %q from overloaded day %s to %s", victim.Title, overloadedDay, dayKey(start)),
			Reason:      "daily workload above cap",
			TaskID:      &taskID,
			TopicID:     &topicID,
		})
	}
	return out, nil
}

func pickLowestPriorityPending(tasks []*types.Task, day string, now time.Time) *types.Task {
	var candidates []*types.Task
	for _, t := range tasks {
		if t.Status != types.TaskStatusPending || dayKey(t.StartTime) != day || t.StartTime.Before(now) {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		pi := decodeTaskMetadata(candidates[i].Metadata).Priority == "HIGH"
		pj := decodeTaskMetadata(candidates[j].Metadata).Priority == "HIGH"
		if pi != pj {
			return !pi
		}
		return candidates[i].StartTime.After(candidates[j].StartTime)
	})
	return candidates[0]
}

func excludeTask(tasks []*types.Task, id uuid.UUID) []*types.Task {
	out := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func (s *adaptationService) enrich(ctx context.Context, result *AdaptationResult) {
	if s.summarizer == nil || len(result.Adaptations) == 0 {
		return
	}
	summary, err := s.summarizer.Summarize(ctx,
		"You explain study calendar changes to a learner in two plain sentences.",
		result.Summary)
	if err != nil {
		s.log.Warn("Adaptation enrichment failed", "error", err)
		result.Degraded = true
		return
	}
	result.LLMSummary = summary
}
