package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

func TestScheduleReview_CreatesTaskAndLinkedAlert(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	f.seedPlan(t, userID, weekdayAvailability())

	result, err := f.remediation.ScheduleReview(context.Background(), userID, topic.ID, nil, "monitor")
	require.NoError(t, err)
	require.False(t, result.AlreadyExists)
	require.Equal(t, types.TaskTypeReview, result.Task.Type)
	require.Equal(t, remediationSessionMinutes, result.Task.Duration)

	md := decodeTaskMetadata(result.Task.Metadata)
	require.True(t, md.IsRemediation)
	require.Equal(t, "HIGH", md.Priority)

	require.NotNil(t, result.Alert)
	require.Equal(t, types.AlertTypeRemediation, result.Alert.Type)
	require.Equal(t, result.Task.ID, *result.Alert.RelatedTaskID)
}

func TestScheduleReview_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	f.seedPlan(t, userID, weekdayAvailability())

	first, err := f.remediation.ScheduleReview(context.Background(), userID, topic.ID, nil, "monitor")
	require.NoError(t, err)

	second, err := f.remediation.ScheduleReview(context.Background(), userID, topic.ID, nil, "monitor")
	require.NoError(t, err)
	require.True(t, second.AlreadyExists)
	require.Equal(t, first.Task.ID, second.Task.ID)

	tasks, err := f.tasks.GetByPlanID(context.Background(), nil, first.Task.PlanID, repos.TaskFilter{
		Type: types.TaskTypeReview,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestScheduleReview_AvoidsExistingTasks(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	// Fill Monday's 120-minute budget so the review lands later.
	monday := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, monday, 120)

	result, err := f.remediation.ScheduleReview(context.Background(), userID, topic.ID, nil, "monitor")
	require.NoError(t, err)
	require.NotEqual(t, dayKey(monday), dayKey(result.Task.StartTime))
}

func TestScheduleReview_UnknownTopic(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.seedPlan(t, userID, weekdayAvailability())

	_, err := f.remediation.ScheduleReview(context.Background(), userID, uuid.New(), nil, "monitor")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCleanup_CollapsesDuplicateReviews(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	mkReview := func(start time.Time) *types.Task {
		task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, remediationSessionMinutes)
		require.NoError(t, f.db.Model(&types.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
			"type":     types.TaskTypeReview,
			"metadata": encodeJSON(types.TaskMetadata{IsRemediation: true, Priority: "HIGH"}),
		}).Error)
		task.Type = types.TaskTypeReview
		return task
	}
	survivor := mkReview(time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC))
	dup := mkReview(time.Date(2026, time.January, 9, 8, 0, 0, 0, time.UTC))

	// Alert watching the duplicate must be re-pointed at the survivor but
	// stay open.
	alert := &types.Alert{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        &plan.ID,
		Type:          types.AlertTypeRemediation,
		Severity:      types.SeverityLow,
		Message:       "review scheduled",
		RelatedTaskID: &dup.ID,
	}
	_, err := f.alerts.Create(context.Background(), nil, []*types.Alert{alert})
	require.NoError(t, err)

	report, err := f.remediation.Cleanup(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, report.DuplicateTasksRemoved)

	remaining, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{Type: types.TaskTypeReview})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, survivor.ID, remaining[0].ID)

	updated, err := f.alerts.GetByIDs(context.Background(), nil, []uuid.UUID{alert.ID})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.Equal(t, survivor.ID, *updated[0].RelatedTaskID)
	require.False(t, updated[0].IsResolved)
}

func TestCleanup_ResolvesCollisionAlerts(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	start := time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC)
	a := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, 60)
	b := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, 60)

	alertA := &types.Alert{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        &plan.ID,
		Type:          types.AlertTypeGeneral,
		Severity:      types.SeverityLow,
		Message:       "watching one collider",
		RelatedTaskID: &a.ID,
	}
	alertB := &types.Alert{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        &plan.ID,
		Type:          types.AlertTypeGeneral,
		Severity:      types.SeverityLow,
		Message:       "watching the other collider",
		RelatedTaskID: &b.ID,
	}
	_, err := f.alerts.Create(context.Background(), nil, []*types.Alert{alertA, alertB})
	require.NoError(t, err)

	report, err := f.remediation.Cleanup(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, report.CollidingTasksRemoved)

	remaining, err := f.tasks.GetByPlanID(context.Background(), nil, plan.ID, repos.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	survivorID := remaining[0].ID

	// Whichever collider was removed, its alert is resolved and re-pointed
	// at the survivor.
	updated, err := f.alerts.GetByIDs(context.Background(), nil, []uuid.UUID{alertA.ID, alertB.ID})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	resolvedCount := 0
	for _, al := range updated {
		require.Equal(t, survivorID, *al.RelatedTaskID)
		if al.IsResolved {
			resolvedCount++
		}
	}
	require.Equal(t, 1, resolvedCount)
}

func TestCleanup_ResolvesOrphanedAlerts(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	gone := uuid.New()
	alert := &types.Alert{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        &plan.ID,
		Type:          types.AlertTypeMissedTask,
		Severity:      types.SeverityMedium,
		Message:       "task vanished",
		RelatedTaskID: &gone,
	}
	_, err := f.alerts.Create(context.Background(), nil, []*types.Alert{alert})
	require.NoError(t, err)

	report, err := f.remediation.Cleanup(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, report.AlertsResolved)
}

func TestCleanup_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	start := time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, 60)
	f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, 60)

	first, err := f.remediation.Cleanup(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, first.CollidingTasksRemoved)

	second, err := f.remediation.Cleanup(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, second.CollidingTasksRemoved)
	require.Zero(t, second.DuplicateTasksRemoved)
}

func TestTrackEffectiveness_AppendsAuditRecord(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	f.seedPlan(t, userID, weekdayAvailability())

	row, err := f.remediation.TrackEffectiveness(context.Background(), userID, types.RemediationScheduleReview, &topic.ID, map[string]any{"delta": 12.5})
	require.NoError(t, err)
	require.Equal(t, types.AdaptationAddReview, row.Type)

	audit, err := f.adaptations.GetByUserID(context.Background(), nil, userID, 10)
	require.NoError(t, err)
	require.Len(t, audit, 1)
}
