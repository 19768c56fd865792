package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/types"
)

// AgentType is the closed set of engine agents. Dispatch goes through the
// Agent interface, so an unknown type is a parse error at the boundary, not
// a runtime branch deep in the engine.
type AgentType string

const (
	AgentScheduler   AgentType = "scheduler"
	AgentMonitor     AgentType = "monitor"
	AgentAdaptation  AgentType = "adaptation"
	AgentRemediation AgentType = "remediation"
)

func ParseAgentType(s string) (AgentType, error) {
	switch AgentType(s) {
	case AgentScheduler, AgentMonitor, AgentAdaptation, AgentRemediation:
		return AgentType(s), nil
	}
	return "", fmt.Errorf("unknown agent type %q", s)
}

type SequenceType string

const (
	// SequenceStandard is Monitor -> Adaptation.
	SequenceStandard SequenceType = "standard"
	// SequenceComprehensive is Monitor -> Adaptation -> Remediation.
	SequenceComprehensive SequenceType = "comprehensive"
)

func ParseSequenceType(s string) (SequenceType, error) {
	switch SequenceType(s) {
	case SequenceStandard, SequenceComprehensive:
		return SequenceType(s), nil
	}
	return "", fmt.Errorf("unknown sequence type %q", s)
}

func (t SequenceType) Steps() []AgentType {
	switch t {
	case SequenceComprehensive:
		return []AgentType{AgentMonitor, AgentAdaptation, AgentRemediation}
	default:
		return []AgentType{AgentMonitor, AgentAdaptation}
	}
}

// Invocation is one agent call. MonitorOutput carries the upstream monitor
// result for steps that consume it.
type Invocation struct {
	UserID        uuid.UUID
	Params        map[string]any
	MonitorOutput any
}

// Result is the structured outcome of one agent run.
type Result struct {
	Agent      AgentType `json:"agent"`
	UserID     uuid.UUID `json:"user_id"`
	Output     any       `json:"output,omitempty"`
	Degraded   bool      `json:"degraded,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Agent interface {
	Type() AgentType
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// paramUUID reads a uuid-valued param, tolerating absent keys.
func paramUUID(params map[string]any, key string) *uuid.UUID {
	if params == nil {
		return nil
	}
	raw, ok := params[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil
		}
		return &id
	case uuid.UUID:
		return &v
	}
	return nil
}

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramFloat(params map[string]any, key string) float64 {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func paramWeekdays(params map[string]any, key string) []time.Weekday {
	if params == nil {
		return nil
	}
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	var out []time.Weekday
	for _, item := range raw {
		switch v := item.(type) {
		case float64:
			out = append(out, time.Weekday(int(v)%7))
		case string:
			if d, ok := weekdayNames[v]; ok {
				out = append(out, d)
			}
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

func paramUUIDList(params map[string]any, key string) []uuid.UUID {
	if params == nil {
		return nil
	}
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	var out []uuid.UUID
	for _, item := range raw {
		if s, ok := item.(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				out = append(out, id)
			}
		}
	}
	return out
}

func paramBand(params map[string]any, key string) types.TimeBand {
	switch types.TimeBand(paramString(params, key)) {
	case types.BandAfternoon:
		return types.BandAfternoon
	case types.BandEvening:
		return types.BandEvening
	default:
		return types.BandMorning
	}
}
