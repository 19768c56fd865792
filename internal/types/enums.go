package types

// Exam domain categories. A Topic belongs to exactly one.
type TopicCategory string

const (
	CategoryNetworking     TopicCategory = "NETWORKING"
	CategorySecurity       TopicCategory = "SECURITY"
	CategoryCloud          TopicCategory = "CLOUD"
	CategoryInfrastructure TopicCategory = "INFRASTRUCTURE"
	CategoryOperations     TopicCategory = "OPERATIONS"
	CategoryTroubleshoot   TopicCategory = "TROUBLESHOOTING"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// LowerTier returns the next easier tier, or the same tier at the floor.
func (d Difficulty) LowerTier() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyEasy
	default:
		return DifficultyEasy
	}
}

// RaiseTier returns the next harder tier, or the same tier at the ceiling.
func (d Difficulty) RaiseTier() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	default:
		return DifficultyHard
	}
}

type TaskType string

const (
	TaskTypeVideo    TaskType = "VIDEO"
	TaskTypeQuiz     TaskType = "QUIZ"
	TaskTypeReading  TaskType = "READING"
	TaskTypePractice TaskType = "PRACTICE"
	TaskTypeReview   TaskType = "REVIEW"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusSkipped    TaskStatus = "SKIPPED"
)

// CanTransitionTo reports whether the status state machine permits s -> next.
// COMPLETED -> PENDING and SKIPPED -> PENDING are the allowed reversions.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusInProgress || next == TaskStatusSkipped || next == TaskStatusCompleted
	case TaskStatusInProgress:
		return next == TaskStatusCompleted
	case TaskStatusCompleted:
		return next == TaskStatusPending
	case TaskStatusSkipped:
		return next == TaskStatusPending
	}
	return false
}

type AlertType string

const (
	AlertTypeMissedTask     AlertType = "MISSED_TASK"
	AlertTypeLowPerformance AlertType = "LOW_PERFORMANCE"
	AlertTypeRemediation    AlertType = "REMEDIATION"
	AlertTypeGeneral        AlertType = "GENERAL"
)

type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "LOW"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityHigh   AlertSeverity = "HIGH"
)

type AdaptationType string

const (
	AdaptationReschedule       AdaptationType = "RESCHEDULE"
	AdaptationAdjustDifficulty AdaptationType = "ADJUST_DIFFICULTY"
	AdaptationAddReview        AdaptationType = "ADD_REVIEW"
	AdaptationRebalance        AdaptationType = "REBALANCE"
)

type RemediationAction string

const (
	RemediationScheduleReview   RemediationAction = "SCHEDULE_REVIEW"
	RemediationAdjustDifficulty RemediationAction = "ADJUST_DIFFICULTY"
	RemediationAddContent       RemediationAction = "ADD_CONTENT"
)

type ScheduleType string

const (
	ScheduleOneTime   ScheduleType = "ONE_TIME"
	ScheduleRecurring ScheduleType = "RECURRING"
)
