package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/types"
)

func slotTask(start time.Time, durationMin int) *types.Task {
	return &types.Task{
		ID:        uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Duration(durationMin) * time.Minute),
		Duration:  durationMin,
	}
}

func TestFindNextSlot_SkipsUnavailableWeekdays(t *testing.T) {
	a := weekdayAvailability()
	// Tuesday morning: first available day is Wednesday.
	from := time.Date(2026, time.January, 6, 7, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 0, 14)

	start, end, ok := findNextSlot(a, nil, from, until, 60)
	if !ok {
		t.Fatalf("expected a slot")
	}
	if start.Weekday() != time.Wednesday {
		t.Fatalf("expected Wednesday, got %s", start.Weekday())
	}
	if got := end.Sub(start); got != 60*time.Minute {
		t.Fatalf("slot length %s", got)
	}
	if start.Hour() != 8 {
		t.Fatalf("morning band should open at 08:00, got %02d:00", start.Hour())
	}
}

func TestFindNextSlot_AdvancesPastCollisions(t *testing.T) {
	a := weekdayAvailability()
	from := testNow // Monday 07:00
	until := from.AddDate(0, 0, 7)
	existing := []*types.Task{slotTask(time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 45)}

	start, _, ok := findNextSlot(a, existing, from, until, 45)
	if !ok {
		t.Fatalf("expected a slot")
	}
	want := time.Date(2026, time.January, 5, 8, 45, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("expected slot at %s, got %s", want, start)
	}
}

func TestFindNextSlot_HonorsDailyBudget(t *testing.T) {
	a := weekdayAvailability() // 120 min/day
	from := testNow
	until := from.AddDate(0, 0, 7)
	existing := []*types.Task{slotTask(time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 120)}

	start, _, ok := findNextSlot(a, existing, from, until, 30)
	if !ok {
		t.Fatalf("expected a slot")
	}
	// Monday is full, so the slot lands on Wednesday.
	if start.Weekday() != time.Wednesday {
		t.Fatalf("expected Wednesday, got %s on %s", start.Weekday(), start)
	}
}

func TestFindNextSlot_NoRoomBeforeDeadline(t *testing.T) {
	a := weekdayAvailability()
	from := testNow
	// Deadline before the band even opens.
	until := time.Date(2026, time.January, 5, 8, 30, 0, 0, time.UTC)

	_, _, ok := findNextSlot(a, nil, from, until, 60)
	if ok {
		t.Fatalf("expected no slot before deadline")
	}
}

func TestEnsureNoOverlap_DetectsConflictsAtWriteTime(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	topic := f.seedTopic(t, "Subnetting", types.CategoryNetworking, 10, 60)
	plan := f.seedPlan(t, userID, weekdayAvailability())

	start := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	existing := f.seedTask(t, plan.ID, topic.ID, types.TaskStatusPending, start, 60)

	// Intersecting window is a conflict.
	err := ensureNoOverlap(context.Background(), nil, f.tasks, plan.ID, start.Add(30*time.Minute), start.Add(90*time.Minute), uuid.Nil)
	if !apperr.IsKind(err, apperr.KindDataIntegrity) {
		t.Fatalf("expected DataIntegrity, got %v", err)
	}

	// Back-to-back window is not.
	err = ensureNoOverlap(context.Background(), nil, f.tasks, plan.ID, start.Add(time.Hour), start.Add(2*time.Hour), uuid.Nil)
	if err != nil {
		t.Fatalf("adjacent window must pass: %v", err)
	}

	// A task being moved never conflicts with its own old window.
	err = ensureNoOverlap(context.Background(), nil, f.tasks, plan.ID, start, start.Add(time.Hour), existing.ID)
	if err != nil {
		t.Fatalf("self-exclusion must pass: %v", err)
	}
}

func TestTaskOverlaps_HalfOpenAdjacency(t *testing.T) {
	task := slotTask(time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), 60)
	adjacent := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	if task.Overlaps(adjacent, adjacent.Add(30*time.Minute)) {
		t.Fatalf("back-to-back windows must not overlap")
	}
	if !task.Overlaps(adjacent.Add(-time.Minute), adjacent) {
		t.Fatalf("windows sharing a minute must overlap")
	}
}
