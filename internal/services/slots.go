package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

const dayKeyLayout = "2006-01-02"

func dayKey(t time.Time) string { return t.Format(dayKeyLayout) }

// bandWindow is the schedulable window of one calendar day: it opens at the
// availability band's start hour and spans the day's hour budget.
func bandWindow(day time.Time, a types.Availability) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), a.Band.StartHour(), 0, 0, 0, day.Location())
	end := start.Add(time.Duration(a.MinutesPerDay()) * time.Minute)
	return start, end
}

// scheduledMinutesByDay sums task durations per calendar day.
func scheduledMinutesByDay(tasks []*types.Task) map[string]int {
	out := map[string]int{}
	for _, t := range tasks {
		out[dayKey(t.StartTime)] += t.Duration
	}
	return out
}

// findNextSlot walks forward from `from` (never past `until`) over the
// available weekdays and returns the first gap of durationMin minutes that
// fits the day's budget and collides with no existing task. ok=false means
// no viable slot exists in the window.
func findNextSlot(a types.Availability, existing []*types.Task, from, until time.Time, durationMin int) (time.Time, time.Time, bool) {
	if durationMin <= 0 || len(a.Weekdays) == 0 || !from.Before(until) {
		return time.Time{}, time.Time{}, false
	}

	sorted := append([]*types.Task(nil), existing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })
	byDay := map[string][]*types.Task{}
	for _, t := range sorted {
		k := dayKey(t.StartTime)
		byDay[k] = append(byDay[k], t)
	}
	minutesByDay := scheduledMinutesByDay(sorted)

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for !day.After(until) {
		if !a.Includes(day.Weekday()) {
			day = day.AddDate(0, 0, 1)
			continue
		}
		windowStart, windowEnd := bandWindow(day, a)
		if windowStart.Before(from) {
			windowStart = from
		}
		if minutesByDay[dayKey(day)]+durationMin > a.MinutesPerDay() {
			day = day.AddDate(0, 0, 1)
			continue
		}

		candidate := windowStart
		dayTasks := byDay[dayKey(day)]
		for {
			end := candidate.Add(time.Duration(durationMin) * time.Minute)
			if end.After(windowEnd) || end.After(until) {
				break
			}
			collided := false
			for _, t := range dayTasks {
				if t.Overlaps(candidate, end) {
					collided = true
					if t.EndTime.After(candidate) {
						candidate = t.EndTime
					}
					break
				}
			}
			if !collided {
				return candidate, end, true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, time.Time{}, false
}

// ensureNoOverlap re-checks a computed slot against the database at write
// time. The slot search runs outside the write transaction, so a concurrent
// writer can take the window in between; a hit is a DataIntegrity conflict.
func ensureNoOverlap(ctx context.Context, tx *gorm.DB, taskRepo repos.TaskRepo, planID uuid.UUID, start, end time.Time, excludeID uuid.UUID) error {
	conflicts, err := taskRepo.GetOverlapping(ctx, tx, planID, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("check overlapping tasks: %w", err)
	}
	if len(conflicts) > 0 {
		return apperr.DataIntegrity("window %s to %s overlaps task %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339), conflicts[0].ID)
	}
	return nil
}
