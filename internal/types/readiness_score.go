package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReadinessScore rows are append-only; the latest by CreatedAt is
// authoritative. Every triggering event recomputes from scratch.
type ReadinessScore struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	OverallScore   float64        `gorm:"column:overall_score;not null" json:"overall_score"`
	CategoryScores datatypes.JSON `gorm:"column:category_scores;type:jsonb" json:"category_scores"`
	WeakAreas      datatypes.JSON `gorm:"column:weak_areas;type:jsonb" json:"weak_areas"`
	StrongAreas    datatypes.JSON `gorm:"column:strong_areas;type:jsonb" json:"strong_areas"`
	ProjectedScore float64        `gorm:"column:projected_score;not null" json:"projected_score"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}

func (ReadinessScore) TableName() string { return "readiness_score" }
