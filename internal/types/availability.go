package types

import "time"

// TimeBand is the preferred time-of-day window for study sessions.
type TimeBand string

const (
	BandMorning   TimeBand = "MORNING"   // 08:00-12:00
	BandAfternoon TimeBand = "AFTERNOON" // 13:00-17:00
	BandEvening   TimeBand = "EVENING"   // 18:00-22:00
)

// StartHour returns the first hour of the band.
func (b TimeBand) StartHour() int {
	switch b {
	case BandAfternoon:
		return 13
	case BandEvening:
		return 18
	default:
		return 8
	}
}

// Availability is the learner's weekly study capacity, stored as JSONB on
// the StudyPlan so reschedules keep honoring it.
type Availability struct {
	Weekdays    []time.Weekday `json:"weekdays"`
	HoursPerDay float64        `json:"hours_per_day"`
	Band        TimeBand       `json:"band"`
}

// MinutesPerDay is the schedulable budget for one available day.
func (a Availability) MinutesPerDay() int {
	return int(a.HoursPerDay * 60)
}

// Includes reports whether d is one of the available weekdays.
func (a Availability) Includes(d time.Weekday) bool {
	for _, w := range a.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}
