package types

import "testing"

func TestTaskStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskStatusPending, TaskStatusInProgress, true},
		{TaskStatusPending, TaskStatusCompleted, true},
		{TaskStatusPending, TaskStatusSkipped, true},
		{TaskStatusInProgress, TaskStatusCompleted, true},
		{TaskStatusInProgress, TaskStatusPending, false},
		{TaskStatusInProgress, TaskStatusSkipped, false},
		{TaskStatusCompleted, TaskStatusPending, true},
		{TaskStatusCompleted, TaskStatusSkipped, false},
		{TaskStatusSkipped, TaskStatusPending, true},
		{TaskStatusSkipped, TaskStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDifficultyTiers(t *testing.T) {
	if DifficultyHard.LowerTier() != DifficultyMedium || DifficultyMedium.LowerTier() != DifficultyEasy {
		t.Fatal("LowerTier order broken")
	}
	if DifficultyEasy.LowerTier() != DifficultyEasy {
		t.Fatal("EASY is the floor")
	}
	if DifficultyEasy.RaiseTier() != DifficultyMedium || DifficultyMedium.RaiseTier() != DifficultyHard {
		t.Fatal("RaiseTier order broken")
	}
	if DifficultyHard.RaiseTier() != DifficultyHard {
		t.Fatal("HARD is the ceiling")
	}
}
