package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskMetadata is the JSONB bag carried by every Task.
type TaskMetadata struct {
	SourceAgent    string     `json:"source_agent,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	IsRemediation  bool       `json:"is_remediation,omitempty"`
	RelatedAlertID *uuid.UUID `json:"related_alert_id,omitempty"`
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan        *StudyPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	Type        TaskType   `gorm:"column:type;not null" json:"type"`
	Status      TaskStatus `gorm:"column:status;not null;default:'PENDING';index" json:"status"`
	StartTime   time.Time  `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime     time.Time  `gorm:"column:end_time;not null" json:"end_time"`
	Duration    int        `gorm:"column:duration;not null" json:"duration"`
	TopicID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"topic_id"`
	Difficulty  Difficulty `gorm:"column:difficulty;not null" json:"difficulty"`
	ContentRef  *string    `gorm:"column:content_ref" json:"content_ref,omitempty"`

	// Captured once, the first time a reschedule moves the task, so the
	// pre-adaptation calendar can be restored.
	OriginalStartTime *time.Time `gorm:"column:original_start_time" json:"original_start_time,omitempty"`
	OriginalEndTime   *time.Time `gorm:"column:original_end_time" json:"original_end_time,omitempty"`

	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "task" }

// Overlaps reports whether two half-open [StartTime, EndTime) windows collide.
func (t *Task) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && start.Before(t.EndTime)
}
