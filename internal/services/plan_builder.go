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
	// Advisory daily load threshold; exceeding it flags the day, never blocks.
	overloadedDayMinutes = 240

	weakTopicBoost = 1.5

	minSessionMinutes = 30
	maxSessionMinutes = 120
)

type BuildPlanInput struct {
	UserID       uuid.UUID
	Availability types.Availability
	ExamDate     time.Time
	WeakTopicIDs []uuid.UUID
	Personalized bool
}

// ValidationFlag is an advisory finding about the generated calendar.
type ValidationFlag struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BuildPlanResult struct {
	Plan       *types.StudyPlan  `json:"plan"`
	Tasks      []*types.Task     `json:"tasks"`
	Validation []ValidationFlag  `json:"validation"`
}

type PlanBuilderService interface {
	BuildPlan(ctx context.Context, input BuildPlanInput) (*BuildPlanResult, error)
}

type planBuilderService struct {
	db        *gorm.DB
	log       *logger.Logger
	topicRepo repos.TopicRepo
	planRepo  repos.StudyPlanRepo
	taskRepo  repos.TaskRepo
	locker    *PlanLocker
	now       func() time.Time
}

func NewPlanBuilderService(db *gorm.DB, log *logger.Logger, topicRepo repos.TopicRepo, planRepo repos.StudyPlanRepo, taskRepo repos.TaskRepo, locker *PlanLocker) PlanBuilderService {
	return &planBuilderService{
		db:        db,
		log:       log.With("service", "PlanBuilderService"),
		topicRepo: topicRepo,
		planRepo:  planRepo,
		taskRepo:  taskRepo,
		locker:    locker,
		now:       time.Now,
	}
}

func (s *planBuilderService) BuildPlan(ctx context.Context, input BuildPlanInput) (*BuildPlanResult, error) {
	if input.UserID == uuid.Nil {
		return nil, apperr.NotFound("user id is required")
	}
	now := s.now()
	if len(input.Availability.Weekdays) == 0 || input.Availability.HoursPerDay <= 0 {
		return nil, apperr.PlanInfeasible("availability is empty")
	}
	if !input.ExamDate.After(now) {
		return nil, apperr.PlanInfeasible("exam date %s is in the past", input.ExamDate.Format(dayKeyLayout))
	}

	existing, err := s.planRepo.GetActiveByUserID(ctx, nil, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if existing != nil {
		return nil, apperr.DataIntegrity("user %s already has an active plan", input.UserID)
	}

	topics, err := s.topicRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, apperr.PlanInfeasible("no topics available to schedule")
	}

	graph, err := NewTopicGraph(topics)
	if err != nil {
		return nil, err
	}

	weak := map[uuid.UUID]bool{}
	for _, id := range input.WeakTopicIDs {
		weak[id] = true
	}

	totalMinutes := availableMinutes(input.Availability, now, input.ExamDate)
	if totalMinutes <= 0 {
		return nil, apperr.PlanInfeasible("no available study minutes before the exam")
	}

	allocations := allocateMinutes(topics, weak, totalMinutes)
	ordered, err := orderTopics(graph, topics, weak)
	if err != nil {
		return nil, err
	}

	plan := &types.StudyPlan{
		ID:             uuid.New(),
		UserID:         input.UserID,
		ExamDate:       input.ExamDate,
		StartDate:      now,
		EndDate:        input.ExamDate,
		IsPersonalized: input.Personalized || len(input.WeakTopicIDs) > 0,
		IsActive:       true,
		Availability:   encodeJSON(input.Availability),
	}

	tasks, flags := s.placeTasks(plan, graph, ordered, allocations, input.Availability, now, input.ExamDate, weak)
	if len(tasks) == 0 {
		return nil, apperr.PlanInfeasible("no task fits the availability before the exam")
	}

	unlock := s.locker.Lock(plan.ID)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.planRepo.Create(ctx, tx, plan); err != nil {
			return fmt.Errorf("persist plan: %w", err)
		}
		if _, err := s.taskRepo.Create(ctx, tx, tasks); err != nil {
			return fmt.Errorf("persist tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Built study plan",
		"user_id", input.UserID,
		"plan_id", plan.ID,
		"tasks", len(tasks),
		"validation_flags", len(flags))
	return &BuildPlanResult{Plan: plan, Tasks: tasks, Validation: flags}, nil
}

// availableMinutes is the schedulable budget between from and examDate.
func availableMinutes(a types.Availability, from, examDate time.Time) int {
	total := 0
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for day.Before(examDate) {
		if a.Includes(day.Weekday()) {
			total += a.MinutesPerDay()
		}
		day = day.AddDate(0, 0, 1)
	}
	return total
}

// allocateMinutes splits the total budget proportionally to topic importance,
// boosting diagnostic weak areas.
func allocateMinutes(topics []*types.Topic, weak map[uuid.UUID]bool, totalMinutes int) map[uuid.UUID]int {
	weights := make(map[uuid.UUID]float64, len(topics))
	var sum float64
	for _, t := range topics {
		w := float64(t.Importance)
		if w <= 0 {
			w = 1
		}
		if weak[t.ID] {
			w *= weakTopicBoost
		}
		weights[t.ID] = w
		sum += w
	}
	out := make(map[uuid.UUID]int, len(topics))
	for _, t := range topics {
		out[t.ID] = int(float64(totalMinutes) * weights[t.ID] / sum)
	}
	return out
}

// orderTopics sorts by weakness then importance and arranges the result so
// prerequisites always come first.
func orderTopics(graph *TopicGraph, topics []*types.Topic, weak map[uuid.UUID]bool) ([]uuid.UUID, error) {
	sorted := append([]*types.Topic(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := weak[sorted[i].ID], weak[sorted[j].ID]
		if wi != wj {
			return wi
		}
		return sorted[i].Importance > sorted[j].Importance
	})
	ids := make([]uuid.UUID, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}
	return graph.OrderByPriority(ids)
}

var sessionTypeRotation = []types.TaskType{
	types.TaskTypeReading,
	types.TaskTypeVideo,
	types.TaskTypeQuiz,
	types.TaskTypePractice,
}

func sessionLength(t *types.Topic) int {
	d := t.EstimatedDuration
	if d < minSessionMinutes {
		return minSessionMinutes
	}
	if d > maxSessionMinutes {
		return maxSessionMinutes
	}
	return d
}

func (s *planBuilderService) placeTasks(plan *types.StudyPlan, graph *TopicGraph, ordered []uuid.UUID, allocations map[uuid.UUID]int, a types.Availability, from, examDate time.Time, weak map[uuid.UUID]bool) ([]*types.Task, []ValidationFlag) {
	var tasks []*types.Task
	var flags []ValidationFlag

	for _, topicID := range ordered {
		topic := graph.Topic(topicID)
		sessLen := sessionLength(topic)
		sessions := allocations[topicID] / sessLen
		if sessions < 1 {
			sessions = 1
		}
		placed := 0
		for i := 0; i < sessions; i++ {
			start, end, ok := findNextSlot(a, tasks, from, examDate, sessLen)
			if !ok {
				break
			}
			taskType := sessionTypeRotation[i%len(sessionTypeRotation)]
			priority := "NORMAL"
			if weak[topicID] {
				priority = "HIGH"
			}
			tasks = append(tasks, &types.Task{
				ID:          uuid.New(),
				PlanID:      plan.ID,
				Title:       fmt.Sprintf("%s: session %d", topic.Name, i+1),
				Description: fmt.Sprintf("%s study session covering %s", taskType, topic.Name),
				Type:        taskType,
				Status:      types.TaskStatusPending,
				StartTime:   start,
				EndTime:     end,
				Duration:    sessLen,
				TopicID:     topicID,
				Difficulty:  topic.Difficulty,
				Metadata: encodeJSON(types.TaskMetadata{
					SourceAgent: "scheduler",
					Priority:    priority,
				}),
			})
			placed++
		}
		if placed == 0 {
			flags = append(flags, ValidationFlag{
				Code:    "TOPIC_COVERAGE_GAP",
				Message: fmt.Sprintf("no session scheduled for topic %q", topic.Name),
			})
		}
	}

	for day, minutes := range scheduledMinutesByDay(tasks) {
		if minutes > overloadedDayMinutes {
			flags = append(flags, ValidationFlag{
				Code:    "DAY_OVERLOADED",
				Message: fmt.Sprintf("%s carries %d scheduled minutes", day, minutes),
			})
		}
	}
	sort.Slice(flags, func(i, j int) bool {
		if flags[i].Code != flags[j].Code {
			return flags[i].Code < flags[j].Code
		}
		return flags[i].Message < flags[j].Message
	})
	return tasks, flags
}
