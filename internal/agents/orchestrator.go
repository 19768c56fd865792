package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/services"
)

type StepState string

const (
	StepSucceeded StepState = "succeeded"
	StepFailed    StepState = "failed"
	StepSkipped   StepState = "skipped"
)

// StepResult is the per-step entry in an aggregate sequence result.
type StepResult struct {
	Agent    AgentType `json:"agent"`
	State    StepState `json:"state"`
	Error    string    `json:"error,omitempty"`
	Degraded bool      `json:"degraded,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

// SequenceResult never carries a bare failure: callers always see which
// step failed and what the surviving steps produced.
type SequenceResult struct {
	UserID    uuid.UUID    `json:"user_id"`
	Steps     []StepResult `json:"steps"`
	Succeeded bool         `json:"succeeded"`
	Degraded  bool         `json:"degraded,omitempty"`
}

// Orchestrator runs single agents or dependency-ordered sequences. No
// retries happen inside a run; retrying is the scheduler's concern.
type Orchestrator struct {
	log    *logger.Logger
	agents map[AgentType]Agent
}

func NewOrchestrator(log *logger.Logger, registered ...Agent) *Orchestrator {
	byType := make(map[AgentType]Agent, len(registered))
	for _, a := range registered {
		byType[a.Type()] = a
	}
	return &Orchestrator{
		log:    log.With("component", "Orchestrator"),
		agents: byType,
	}
}

// RunAgent executes one agent. A failing single step surfaces its error.
func (o *Orchestrator) RunAgent(ctx context.Context, agentType AgentType, userID uuid.UUID, params map[string]any) (*Result, error) {
	agent, ok := o.agents[agentType]
	if !ok {
		return nil, apperr.NotFound("agent %q is not registered", agentType)
	}
	if userID == uuid.Nil {
		return nil, apperr.NotFound("user id is required")
	}
	res, err := agent.Run(ctx, Invocation{UserID: userID, Params: params})
	if err != nil {
		o.log.Warn("Agent run failed", "agent", agentType, "user_id", userID, "error", err)
		return nil, err
	}
	return res, nil
}

// RunSequence executes a named fixed sequence.
func (o *Orchestrator) RunSequence(ctx context.Context, seq SequenceType, userID uuid.UUID, params map[string]any) (*SequenceResult, error) {
	return o.RunSteps(ctx, seq.Steps(), userID, params)
}

// RunSteps executes an explicit ordered list of agents. The monitor step is
// continue-on-error when a later step can still run without its output;
// failures in later steps are recorded in the aggregate result and never
// thrown past the orchestrator boundary. Only a failure of the first step
// of a single-step run escapes as an error.
func (o *Orchestrator) RunSteps(ctx context.Context, steps []AgentType, userID uuid.UUID, params map[string]any) (*SequenceResult, error) {
	if len(steps) == 0 {
		return nil, apperr.NotFound("no steps requested")
	}
	if len(steps) == 1 {
		res, err := o.RunAgent(ctx, steps[0], userID, params)
		if err != nil {
			return nil, err
		}
		return &SequenceResult{
			UserID:    userID,
			Steps:     []StepResult{{Agent: steps[0], State: StepSucceeded, Degraded: res.Degraded, Result: res}},
			Succeeded: true,
			Degraded:  res.Degraded,
		}, nil
	}

	agg := &SequenceResult{UserID: userID, Succeeded: true}
	var monitorOutput any
	started := time.Now()
	for i, step := range steps {
		agent, ok := o.agents[step]
		if !ok {
			agg.Steps = append(agg.Steps, StepResult{Agent: step, State: StepFailed, Error: fmt.Sprintf("agent %q is not registered", step)})
			agg.Succeeded = false
			continue
		}
		res, err := agent.Run(ctx, Invocation{UserID: userID, Params: params, MonitorOutput: monitorOutput})
		if err != nil {
			agg.Steps = append(agg.Steps, StepResult{Agent: step, State: StepFailed, Error: err.Error()})
			agg.Succeeded = false
			// The monitor feeding adaptation is the designated
			// continue-on-error step: downstream runs without its output.
			if step == AgentMonitor && i < len(steps)-1 {
				continue
			}
			if i < len(steps)-1 {
				// A non-designated mid-sequence failure skips the remainder.
				for _, rest := range steps[i+1:] {
					agg.Steps = append(agg.Steps, StepResult{Agent: rest, State: StepSkipped})
				}
			}
			break
		}
		if step == AgentMonitor {
			if mr, ok := res.Output.(*services.MonitorResult); ok {
				monitorOutput = mr
			}
		}
		if res.Degraded {
			agg.Degraded = true
		}
		agg.Steps = append(agg.Steps, StepResult{Agent: step, State: StepSucceeded, Degraded: res.Degraded, Result: res})
	}
	o.log.Info("Sequence run finished",
		"user_id", userID,
		"steps", len(steps),
		"succeeded", agg.Succeeded,
		"degraded", agg.Degraded,
		"elapsed", time.Since(started))
	return agg, nil
}
