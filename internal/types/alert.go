package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AlertMetadata is the JSONB bag on an Alert.
type AlertMetadata struct {
	ScheduledTaskID *uuid.UUID `json:"scheduled_task_id,omitempty"`
	SuggestedAction string     `json:"suggested_action,omitempty"`
	Source          string     `json:"source,omitempty"`
}

type Alert struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID         *uuid.UUID     `gorm:"type:uuid;index" json:"plan_id,omitempty"`
	Type           AlertType      `gorm:"column:type;not null;index" json:"type"`
	Severity       AlertSeverity  `gorm:"column:severity;not null" json:"severity"`
	Message        string         `gorm:"column:message;not null" json:"message"`
	RelatedTaskID  *uuid.UUID     `gorm:"type:uuid;index" json:"related_task_id,omitempty"`
	RelatedTopicID *uuid.UUID     `gorm:"type:uuid" json:"related_topic_id,omitempty"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	IsResolved     bool           `gorm:"column:is_resolved;not null;default:false;index" json:"is_resolved"`
	ResolvedAt     *time.Time     `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Alert) TableName() string { return "alert" }
