package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScheduleEntry drives recurring or one-off agent runs. ClaimedAt is the
// in-flight marker set by the compare-and-swap claim; a claim older than the
// stale cutoff is treated as abandoned and may be re-claimed.
type ScheduleEntry struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AgentType    string         `gorm:"column:agent_type;not null" json:"agent_type"`
	SequenceType string         `gorm:"column:sequence_type" json:"sequence_type,omitempty"`
	ScheduleType ScheduleType   `gorm:"column:schedule_type;not null" json:"schedule_type"`
	UserID       *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Interval     time.Duration  `gorm:"column:interval;not null" json:"interval"`
	Priority     int            `gorm:"column:priority;not null;default:0" json:"priority"`
	Enabled      bool           `gorm:"column:enabled;not null;default:true;index" json:"enabled"`
	Params       datatypes.JSON `gorm:"column:params;type:jsonb" json:"params"`
	NextRun      time.Time      `gorm:"column:next_run;not null;index" json:"next_run"`
	LastRun      *time.Time     `gorm:"column:last_run" json:"last_run,omitempty"`
	LastResult   string         `gorm:"column:last_result" json:"last_result,omitempty"`
	ClaimedAt    *time.Time     `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (ScheduleEntry) TableName() string { return "schedule_entry" }
