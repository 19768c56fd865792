package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/types"
)

func TestMonitorRun_MissedTasksRaiseOneHighAlert(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Routing", types.CategoryNetworking, 9, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	// 3 of 10 tasks missed, none graded: exactly one HIGH MISSED_TASK alert
	// and no LOW_PERFORMANCE alert.
	for i := 0; i < 3; i++ {
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, testNow.Add(time.Duration(-24*(i+1))*time.Hour), 60)
	}
	for i := 0; i < 7; i++ {
		f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow.Add(time.Duration(24*(i+1))*time.Hour), 60)
	}

	result, err := f.monitor.Run(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Equal(t, 10, result.Stats.TotalTasks)
	require.Equal(t, 3, result.Stats.MissedTasks)
	require.InDelta(t, 0.3, result.Stats.MissedRatio, 0.001)
	require.Nil(t, result.Stats.AveragePerformance)

	require.Len(t, result.Alerts, 1)
	alert := result.Alerts[0]
	require.Equal(t, types.AlertTypeMissedTask, alert.Type)
	require.Equal(t, types.SeverityHigh, alert.Severity)
}

func TestMonitorRun_DeduplicatesUnresolvedAlerts(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Routing", types.CategoryNetworking, 9, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, testNow.Add(-48*time.Hour), 60)

	first, err := f.monitor.Run(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, first.Alerts, 1)

	second, err := f.monitor.Run(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Empty(t, second.Alerts, "unresolved alert of same type must not duplicate")

	// Resolving the alert re-arms the rule.
	require.NoError(t, f.alerts.ResolveByIDs(context.Background(), nil, []uuid.UUID{first.Alerts[0].ID}))
	third, err := f.monitor.Run(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, third.Alerts, 1)
}

func TestMonitorRun_LowPerformanceNeedsGradedData(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Firewalls", types.CategorySecurity, 8, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow.Add(24*time.Hour), 60)

	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(42), 4, true)

	result, err := f.monitor.Run(context.Background(), userID, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Stats.AveragePerformance)
	require.InDelta(t, 42, *result.Stats.AveragePerformance, 0.01)

	var gotLowPerf bool
	for _, a := range result.Alerts {
		if a.Type == types.AlertTypeLowPerformance {
			gotLowPerf = true
			require.Equal(t, types.SeverityHigh, a.Severity)
		}
	}
	require.True(t, gotLowPerf, "graded average below 50 must raise a HIGH LOW_PERFORMANCE alert")
}

func TestMonitorRun_NoActivePlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.monitor.Run(context.Background(), uuid.New(), nil)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMonitorRun_EnrichmentFailureDegrades(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Routing", types.CategoryNetworking, 9, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow.Add(24*time.Hour), 60)

	log := f.monitor.(*monitorService).log
	broken := NewMonitorService(f.db, log, f.plans, f.tasks, f.perfs, f.alerts, f.readinessS, failingSummarizer{}, f.locker)
	broken.(*monitorService).now = func() time.Time { return testNow }

	result, err := broken.Run(context.Background(), userID, nil)
	require.NoError(t, err, "enrichment failure must not fail the run")
	require.True(t, result.Degraded)
	require.Empty(t, result.Summary)
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(ctx context.Context, system, user string) (string, error) {
	return "", apperr.EnrichmentUnavailable(context.DeadlineExceeded)
}

func TestIsMissed(t *testing.T) {
	past := testNow.Add(-2 * time.Hour)
	future := testNow.Add(2 * time.Hour)
	cases := []struct {
		name   string
		status types.TaskStatus
		end    time.Time
		want   bool
	}{
		{"pending past", types.TaskStatusPending, past, true},
		{"in-progress past", types.TaskStatusInProgress, past, true},
		{"pending future", types.TaskStatusPending, future, false},
		{"completed past", types.TaskStatusCompleted, past, false},
		{"skipped past", types.TaskStatusSkipped, past, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := &types.Task{Status: tc.status, EndTime: tc.end}
			if got := isMissed(task, testNow); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
