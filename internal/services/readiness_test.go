package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/exampilot-backend/internal/types"
)

func (f *fixture) seedPerformance(t *testing.T, userID, taskID, topicID uuid.UUID, score *float64, confidence int, completed bool) {
	t.Helper()
	_, err := f.perfs.Create(context.Background(), nil, []*types.Performance{{
		ID:         uuid.New(),
		UserID:     userID,
		TaskID:     taskID,
		TopicID:    topicID,
		Score:      score,
		Confidence: confidence,
		Completed:  completed,
	}})
	require.NoError(t, err)
}

func TestReadinessCompute_NoDataYieldsNil(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	score, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, score, "no active plan")

	f.seedPlan(t, userID, weekdayAvailability())
	score, err = f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, score, "no performance data")
}

func TestReadinessCompute_ScoresStayInBounds(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow, 60)

	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(92), 5, true)
	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(88), 4, true)

	score, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, score)
	require.GreaterOrEqual(t, score.OverallScore, 0.0)
	require.LessOrEqual(t, score.OverallScore, 100.0)
	require.GreaterOrEqual(t, score.ProjectedScore, 0.0)
	require.LessOrEqual(t, score.ProjectedScore, 100.0)

	var strong []types.TopicCategory
	require.NoError(t, json.Unmarshal(score.StrongAreas, &strong))
	require.Contains(t, strong, types.CategoryNetworking)
}

func TestReadinessCompute_ConfidenceWeighting(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Firewalls", types.CategorySecurity, 8, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow, 60)

	// High-confidence low score should dominate a low-confidence high score.
	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(40), 5, true)
	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(90), 1, true)

	score, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, score)
	// Weighted mean: (40*5 + 90*1) / 6 = 48.33
	require.InDelta(t, 48.33, score.OverallScore, 0.1)

	var weak []types.TopicCategory
	require.NoError(t, json.Unmarshal(score.WeakAreas, &weak))
	require.Contains(t, weak, types.CategorySecurity)
}

func TestReadinessCompute_ProxyScoresForUngradedWork(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Cabling", types.CategoryInfrastructure, 5, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow, 60)

	f.seedPerformance(t, userID, task.ID, topic.ID, nil, 3, true)

	score, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, score)
	require.InDelta(t, completedProxyScore, score.OverallScore, 0.01)
}

func TestReadinessCompute_ProjectedFollowsTrend(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Routing", types.CategoryNetworking, 9, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())
	task := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusCompleted, testNow, 60)

	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(60), 3, true)
	first, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, first)

	f.seedPerformance(t, userID, task.ID, topic.ID, floatPtr(90), 3, true)
	second, err := f.readinessS.Compute(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, second)

	// Improving trend projects above the current overall.
	require.Greater(t, second.OverallScore, first.OverallScore)
	require.Greater(t, second.ProjectedScore, second.OverallScore)
}

func TestEffectiveScore(t *testing.T) {
	cases := []struct {
		name string
		perf *types.Performance
		want float64
	}{
		{"graded", &types.Performance{Score: floatPtr(72), Completed: true}, 72},
		{"graded clamped", &types.Performance{Score: floatPtr(130)}, 100},
		{"completed proxy", &types.Performance{Completed: true}, completedProxyScore},
		{"missed proxy", &types.Performance{}, missedProxyScore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := effectiveScore(tc.perf); got != tc.want {
				t.Fatalf("got %.1f want %.1f", got, tc.want)
			}
		})
	}
}
