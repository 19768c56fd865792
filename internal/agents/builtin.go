package agents

import (
	"context"
	"time"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/services"
	"github.com/yungbote/exampilot-backend/internal/types"
)

// The built-in agents are thin adapters binding the engine services to the
// orchestrator's Agent interface.

type schedulerAgent struct {
	planBuilder services.PlanBuilderService
}

func NewSchedulerAgent(planBuilder services.PlanBuilderService) Agent {
	return &schedulerAgent{planBuilder: planBuilder}
}

func (a *schedulerAgent) Type() AgentType { return AgentScheduler }

func (a *schedulerAgent) Run(ctx context.Context, inv Invocation) (*Result, error) {
	started := time.Now()
	examDate, err := time.Parse(time.RFC3339, paramString(inv.Params, "exam_date"))
	if err != nil {
		return nil, apperr.PlanInfeasible("exam_date param missing or malformed")
	}
	out, err := a.planBuilder.BuildPlan(ctx, services.BuildPlanInput{
		UserID: inv.UserID,
		Availability: availabilityFromParams(inv.Params),
		ExamDate:     examDate,
		WeakTopicIDs: paramUUIDList(inv.Params, "weak_topic_ids"),
		Personalized: len(paramUUIDList(inv.Params, "weak_topic_ids")) > 0,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Agent: AgentScheduler, UserID: inv.UserID, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
}

type monitorAgent struct {
	monitor services.MonitorService
}

func NewMonitorAgent(monitor services.MonitorService) Agent {
	return &monitorAgent{monitor: monitor}
}

func (a *monitorAgent) Type() AgentType { return AgentMonitor }

func (a *monitorAgent) Run(ctx context.Context, inv Invocation) (*Result, error) {
	started := time.Now()
	out, err := a.monitor.Run(ctx, inv.UserID, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: AgentMonitor, UserID: inv.UserID, Output: out, Degraded: out.Degraded, StartedAt: started, FinishedAt: time.Now()}, nil
}

type adaptationAgent struct {
	adaptation services.AdaptationService
}

func NewAdaptationAgent(adaptation services.AdaptationService) Agent {
	return &adaptationAgent{adaptation: adaptation}
}

func (a *adaptationAgent) Type() AgentType { return AgentAdaptation }

func (a *adaptationAgent) Run(ctx context.Context, inv Invocation) (*Result, error) {
	started := time.Now()
	monitorOut, _ := inv.MonitorOutput.(*services.MonitorResult)
	out, err := a.adaptation.Run(ctx, inv.UserID, monitorOut)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: AgentAdaptation, UserID: inv.UserID, Output: out, Degraded: out.Degraded, StartedAt: started, FinishedAt: time.Now()}, nil
}

type remediationAgent struct {
	remediation services.RemediationService
}

func NewRemediationAgent(remediation services.RemediationService) Agent {
	return &remediationAgent{remediation: remediation}
}

func (a *remediationAgent) Type() AgentType { return AgentRemediation }

// Run schedules a review when topic_id is supplied, otherwise runs the
// dedup/cleanup pass.
func (a *remediationAgent) Run(ctx context.Context, inv Invocation) (*Result, error) {
	started := time.Now()
	if topicID := paramUUID(inv.Params, "topic_id"); topicID != nil {
		out, err := a.remediation.ScheduleReview(ctx, inv.UserID, *topicID, paramUUID(inv.Params, "alert_id"), paramStringDefault(inv.Params, "source", "remediation"))
		if err != nil {
			return nil, err
		}
		return &Result{Agent: AgentRemediation, UserID: inv.UserID, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
	}
	out, err := a.remediation.Cleanup(ctx, inv.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: AgentRemediation, UserID: inv.UserID, Output: out, StartedAt: started, FinishedAt: time.Now()}, nil
}

func paramStringDefault(params map[string]any, key, def string) string {
	if v := paramString(params, key); v != "" {
		return v
	}
	return def
}

func availabilityFromParams(params map[string]any) types.Availability {
	return types.Availability{
		Weekdays:    paramWeekdays(params, "weekdays"),
		HoursPerDay: paramFloat(params, "hours_per_day"),
		Band:        paramBand(params, "band"),
	}
}
