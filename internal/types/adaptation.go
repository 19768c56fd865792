package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Adaptation is an immutable audit record of one calendar mutation.
type Adaptation struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"plan_id"`
	Type        AdaptationType `gorm:"column:type;not null" json:"type"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Reason      string         `gorm:"column:reason;not null" json:"reason"`
	TaskID      *uuid.UUID     `gorm:"type:uuid" json:"task_id,omitempty"`
	TopicID     *uuid.UUID     `gorm:"type:uuid" json:"topic_id,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (Adaptation) TableName() string { return "adaptation" }
