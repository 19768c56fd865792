package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

func TestDifficultyShift(t *testing.T) {
	mk := func(scores ...float64) []*types.Performance {
		var out []*types.Performance
		for i := range scores {
			out = append(out, &types.Performance{Score: &scores[i]})
		}
		return out
	}
	cases := []struct {
		name   string
		recent []*types.Performance
		want   int
	}{
		{"all low", mk(40, 45, 30), -1},
		{"all high", mk(90, 99, 86), 1},
		{"mixed stays put", mk(40, 90, 55), 0},
		{"boundary scores stay put", mk(50, 50, 50), 0},
		{"too few samples", mk(40, 45), 0},
		{"ungraded rows do not count", append(mk(40, 45), &types.Performance{}), 0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := difficultyShift(tc.recent); got != tc.want {
				t.Fatalf("difficultyShift(%s) = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestAdaptationRun_ReschedulesMissedTasks(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	missedStart := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, missedStart, 60)

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)
	require.Len(t, result.Adaptations, 1)
	require.Equal(t, types.AdaptationReschedule, result.Adaptations[0].Type)

	moved := f.mustGetTask(t, task.ID)
	require.True(t, moved.StartTime.After(testNow))
	require.Equal(t, types.TaskStatusPending, moved.Status)
	require.NotNil(t, moved.OriginalStartTime)
	require.True(t, moved.OriginalStartTime.Equal(missedStart))
}

func TestAdaptationRun_OriginalWindowCapturedOnce(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	missedStart := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, missedStart, 60)

	_, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	// Push the task into the past again and re-run. The audit trail keeps
	// the first window, not the intermediate one.
	require.NoError(t, f.tasks.UpdateFields(context.Background(), nil, task.ID, map[string]interface{}{
		"start_time": time.Date(2026, time.January, 3, 8, 0, 0, 0, time.UTC),
		"end_time":   time.Date(2026, time.January, 3, 9, 0, 0, 0, time.UTC),
	}))
	_, err = f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	moved := f.mustGetTask(t, task.ID)
	require.NotNil(t, moved.OriginalStartTime)
	require.True(t, moved.OriginalStartTime.Equal(missedStart))
}

func TestAdaptationRun_LowersDifficultyOnPersistentLowScores(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	done := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted,
		time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 60)
	for _, score := range []float64{40, 45, 30} {
		f.seedPerformance(t, userID, done.ID, topic.ID, floatPtr(score), 3, true)
	}
	pending := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending,
		time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC), 60)

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	var adjusted bool
	for _, a := range result.Adaptations {
		if a.Type == types.AdaptationAdjustDifficulty {
			adjusted = true
		}
	}
	require.True(t, adjusted)
	require.Equal(t, types.DifficultyEasy, f.mustGetTask(t, pending.ID).Difficulty)
}

func TestAdaptationRun_DifficultyHoldsInsideBand(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	done := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted,
		time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 60)
	for _, score := range []float64{40, 90, 55} {
		f.seedPerformance(t, userID, done.ID, topic.ID, floatPtr(score), 3, true)
	}
	pending := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending,
		time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC), 60)

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	for _, a := range result.Adaptations {
		if a.Type == types.AdaptationAdjustDifficulty {
			t.Fatalf("unexpected difficulty adaptation: %s", a.Description)
		}
	}
	require.Equal(t, types.DifficultyMedium, f.mustGetTask(t, pending.ID).Difficulty)
}

func TestAdaptationRun_AddsReviewForWeakTopic(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	done := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted,
		time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 60)
	f.seedPerformance(t, userID, done.ID, topic.ID, floatPtr(40), 3, true)

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	var reviews int
	for _, a := range result.Adaptations {
		if a.Type == types.AdaptationAddReview {
			reviews++
		}
	}
	require.Equal(t, 1, reviews)

	tasks, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{Type: types.TaskTypeReview})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// A second run finds the pending review and does not duplicate it.
	again, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)
	for _, a := range again.Adaptations {
		if a.Type == types.AdaptationAddReview {
			t.Fatalf("review session duplicated: %s", a.Description)
		}
	}
}

func TestAdaptationRun_RebalancesOverloadedDay(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	monday := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, monday, 60)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, monday.Add(time.Hour), 60)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, monday.Add(2*time.Hour), 60)

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)
	require.Len(t, result.Adaptations, 1)
	require.Equal(t, types.AdaptationRebalance, result.Adaptations[0].Type)

	tasks, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{})
	require.NoError(t, err)
	dailyCap := weekdayAvailability().MinutesPerDay()
	for day, minutes := range scheduledMinutesByDay(tasks) {
		if minutes > dailyCap {
			t.Fatalf("day %s still overloaded: %d minutes", day, minutes)
		}
	}
}

func TestAdaptationRun_RebalanceIgnoresPastDays(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	// A past Friday over the cap is spent load; the future Wednesday is the
	// day that actually needs relief.
	friday := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, friday.Add(time.Duration(i)*time.Hour), 60)
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, wednesday.Add(time.Duration(i)*time.Hour), 60)
	}

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	var rebalanced int
	for _, a := range result.Adaptations {
		if a.Type == types.AdaptationRebalance {
			rebalanced++
		}
	}
	require.Equal(t, 1, rebalanced)

	tasks, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{
		Statuses: []types.TaskStatus{types.TaskStatusPending},
	})
	require.NoError(t, err)
	dailyCap := weekdayAvailability().MinutesPerDay()
	for day, minutes := range scheduledMinutesByDay(tasks) {
		if minutes > dailyCap {
			t.Fatalf("day %s still overloaded: %d minutes", day, minutes)
		}
	}
}

func TestAdaptationRun_RebalanceSkipsUnmovableDay(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	// Monday is over the cap with completed work only, so nothing there can
	// move. Wednesday's overload must still be handled.
	monday := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, monday.Add(time.Duration(i)*time.Hour), 60)
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, wednesday.Add(time.Duration(i)*time.Hour), 60)
	}

	result, err := f.adaptation.Run(context.Background(), userID, &MonitorResult{})
	require.NoError(t, err)

	var rebalanced int
	for _, a := range result.Adaptations {
		if a.Type == types.AdaptationRebalance {
			rebalanced++
		}
	}
	require.Equal(t, 1, rebalanced)

	pending, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{
		Statuses: []types.TaskStatus{types.TaskStatusPending},
	})
	require.NoError(t, err)
	wednesdayMinutes := scheduledMinutesByDay(pending)[dayKey(wednesday)]
	require.LessOrEqual(t, wednesdayMinutes, weekdayAvailability().MinutesPerDay())
}

func TestAdaptationRun_NoActivePlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.adaptation.Run(context.Background(), uuid.New(), &MonitorResult{})
	require.Error(t, err)
}

func (f *fixture) mustGetTask(t *testing.T, id uuid.UUID) *types.Task {
	t.Helper()
	tasks, err := f.tasks.GetByIDs(context.Background(), nil, []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	return tasks[0]
}
