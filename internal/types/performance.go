package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PerformanceAnswer is one answered question within a graded task.
type PerformanceAnswer struct {
	Selected string `json:"selected"`
	Correct  bool   `json:"correct"`
}

// Performance is append-only; the only deletion path is the revert of a
// COMPLETED task back to PENDING.
type Performance struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"task_id"`
	TopicID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"topic_id"`
	ContentRef *string        `gorm:"column:content_ref" json:"content_ref,omitempty"`
	Score      *float64       `gorm:"column:score" json:"score,omitempty"`
	TimeSpent  int            `gorm:"column:time_spent;not null;default:0" json:"time_spent"`
	Completed  bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	Confidence int            `gorm:"column:confidence;not null;default:3" json:"confidence"`
	Answers    datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (Performance) TableName() string { return "performance" }
