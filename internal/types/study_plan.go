package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StudyPlan is the aggregate root for one user's exam preparation.
// At most one active plan per user; EndDate derives from ExamDate.
type StudyPlan struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ExamDate       time.Time      `gorm:"column:exam_date;not null" json:"exam_date"`
	StartDate      time.Time      `gorm:"column:start_date;not null" json:"start_date"`
	EndDate        time.Time      `gorm:"column:end_date;not null" json:"end_date"`
	IsPersonalized bool           `gorm:"column:is_personalized;not null;default:false" json:"is_personalized"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	Availability   datatypes.JSON `gorm:"column:availability;type:jsonb" json:"availability"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (StudyPlan) TableName() string { return "study_plan" }
