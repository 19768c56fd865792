package app

import (
	"github.com/yungbote/exampilot-backend/internal/handlers"
	"github.com/yungbote/exampilot-backend/internal/logger"
)

type Handlers struct {
	Topic     *handlers.TopicHandler
	Plan      *handlers.PlanHandler
	Task      *handlers.TaskHandler
	Readiness *handlers.ReadinessHandler
	Alert     *handlers.AlertHandler
	Agent     *handlers.AgentHandler
	Schedule  *handlers.ScheduleHandler
}

func wireHandlers(log *logger.Logger, s Services, r Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Topic:     handlers.NewTopicHandler(log, r.Topic),
		Plan:      handlers.NewPlanHandler(log, s.PlanBuilder, r.StudyPlan, r.Task),
		Task:      handlers.NewTaskHandler(log, s.Progress, r.StudyPlan, r.Task),
		Readiness: handlers.NewReadinessHandler(log, s.Readiness),
		Alert:     handlers.NewAlertHandler(log, r.Alert),
		Agent:     handlers.NewAgentHandler(log, s.Orchestrator, s.Cooldown),
		Schedule:  handlers.NewScheduleHandler(log, s.Scheduler),
	}
}
