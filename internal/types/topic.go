package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Topic is immutable once any Task references it. Prerequisites is a JSON
// array of topic ids and must stay acyclic; a cycle is a data-integrity
// error surfaced at use, never silently repaired.
type Topic struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string         `gorm:"column:name;not null" json:"name"`
	Category          TopicCategory  `gorm:"column:category;not null;index" json:"category"`
	Difficulty        Difficulty     `gorm:"column:difficulty;not null" json:"difficulty"`
	Importance        int            `gorm:"column:importance;not null;default:5" json:"importance"`
	EstimatedDuration int            `gorm:"column:estimated_duration;not null" json:"estimated_duration"`
	Prerequisites     datatypes.JSON `gorm:"column:prerequisites;type:jsonb" json:"prerequisites"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
