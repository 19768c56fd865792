package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

// testNow is a fixed Monday morning so weekday math stays stable.
var testNow = time.Date(2026, time.January, 5, 7, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Topic{},
		&types.StudyPlan{},
		&types.Task{},
		&types.Performance{},
		&types.ReadinessScore{},
		&types.Alert{},
		&types.Adaptation{},
		&types.ScheduleEntry{},
	))
	return db
}

type fixture struct {
	db          *gorm.DB
	topics      repos.TopicRepo
	plans       repos.StudyPlanRepo
	tasks       repos.TaskRepo
	perfs       repos.PerformanceRepo
	readiness   repos.ReadinessRepo
	alerts      repos.AlertRepo
	adaptations repos.AdaptationRepo
	locker      *PlanLocker

	planBuilder PlanBuilderService
	readinessS  ReadinessService
	progress    ProgressService
	monitor     MonitorService
	remediation RemediationService
	adaptation  AdaptationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()

	f := &fixture{
		db:          db,
		topics:      repos.NewTopicRepo(db, log),
		plans:       repos.NewStudyPlanRepo(db, log),
		tasks:       repos.NewTaskRepo(db, log),
		perfs:       repos.NewPerformanceRepo(db, log),
		readiness:   repos.NewReadinessRepo(db, log),
		alerts:      repos.NewAlertRepo(db, log),
		adaptations: repos.NewAdaptationRepo(db, log),
		locker:      NewPlanLocker(),
	}
	f.planBuilder = NewPlanBuilderService(db, log, f.topics, f.plans, f.tasks, f.locker)
	f.planBuilder.(*planBuilderService).now = func() time.Time { return testNow }
	f.readinessS = NewReadinessService(db, log, f.plans, f.topics, f.perfs, f.readiness)
	f.progress = NewProgressService(db, log, f.tasks, f.plans, f.perfs, f.readinessS, f.locker)
	f.monitor = NewMonitorService(db, log, f.plans, f.tasks, f.perfs, f.alerts, f.readinessS, nil, f.locker)
	f.monitor.(*monitorService).now = func() time.Time { return testNow }
	f.remediation = NewRemediationService(db, log, f.plans, f.topics, f.tasks, f.alerts, f.adaptations, f.locker)
	f.remediation.(*remediationService).now = func() time.Time { return testNow }
	f.adaptation = NewAdaptationService(db, log, f.plans, f.topics, f.tasks, f.perfs, f.adaptations, f.monitor, f.remediation, nil, f.locker)
	f.adaptation.(*adaptationService).now = func() time.Time { return testNow }
	return f
}

func mustJSONRaw(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func (f *fixture) seedTopic(t *testing.T, name string, category types.TopicCategory, importance, duration int, prereqs ...uuid.UUID) *types.Topic {
	t.Helper()
	topic := &types.Topic{
		ID:                uuid.New(),
		Name:              name,
		Category:          category,
		Difficulty:        types.DifficultyMedium,
		Importance:        importance,
		EstimatedDuration: duration,
	}
	if len(prereqs) > 0 {
		topic.Prerequisites = mustJSONRaw(t, prereqs)
	}
	_, err := f.topics.Create(context.Background(), nil, []*types.Topic{topic})
	require.NoError(t, err)
	return topic
}

func weekdayAvailability() types.Availability {
	return types.Availability{
		Weekdays:    []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		HoursPerDay: 2,
		Band:        types.BandMorning,
	}
}

func (f *fixture) seedPlan(t *testing.T, userID uuid.UUID, a types.Availability) *types.StudyPlan {
	t.Helper()
	plan := &types.StudyPlan{
		ID:           uuid.New(),
		UserID:       userID,
		ExamDate:     testNow.AddDate(0, 0, 21),
		StartDate:    testNow,
		EndDate:      testNow.AddDate(0, 0, 21),
		IsActive:     true,
		Availability: mustJSONRaw(t, a),
	}
	_, err := f.plans.Create(context.Background(), nil, plan)
	require.NoError(t, err)
	return plan
}

func (f *fixture) seedTask(t *testing.T, planID, topicID uuid.UUID, status types.TaskStatus, start time.Time, durationMin int) *types.Task {
	t.Helper()
	task := &types.Task{
		ID:         uuid.New(),
		PlanID:     planID,
		Title:      "seeded task",
		Type:       types.TaskTypeReading,
		Status:     status,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(durationMin) * time.Minute),
		Duration:   durationMin,
		TopicID:    topicID,
		Difficulty: types.DifficultyMedium,
		Metadata:   datatypes.JSON(`{"source_agent":"scheduler","priority":"NORMAL"}`),
	}
	_, err := f.tasks.Create(context.Background(), nil, []*types.Task{task})
	require.NoError(t, err)
	return task
}

func floatPtr(v float64) *float64 { return &v }
