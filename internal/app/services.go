package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/agents"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/services"
)

type Services struct {
	PlanLocker   *services.PlanLocker
	PlanBuilder  services.PlanBuilderService
	Readiness    services.ReadinessService
	Progress     services.ProgressService
	Monitor      services.MonitorService
	Remediation  services.RemediationService
	Adaptation   services.AdaptationService
	Cooldown     services.CooldownService
	Summarizer   services.Summarizer
	Orchestrator *agents.Orchestrator
	Scheduler    agents.SchedulerService
	AgentWorker  *agents.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	locker := services.NewPlanLocker()

	summarizer, err := services.NewOpenAISummarizer(log)
	if err != nil {
		return Services{}, err
	}

	cooldown, err := services.NewCooldownService(log)
	if err != nil {
		return Services{}, err
	}

	planBuilder := services.NewPlanBuilderService(db, log, r.Topic, r.StudyPlan, r.Task, locker)
	readiness := services.NewReadinessService(db, log, r.StudyPlan, r.Topic, r.Performance, r.Readiness)
	progress := services.NewProgressService(db, log, r.Task, r.StudyPlan, r.Performance, readiness, locker)
	monitor := services.NewMonitorService(db, log, r.StudyPlan, r.Task, r.Performance, r.Alert, readiness, summarizer, locker)
	remediation := services.NewRemediationService(db, log, r.StudyPlan, r.Topic, r.Task, r.Alert, r.Adaptation, locker)
	adaptation := services.NewAdaptationService(db, log, r.StudyPlan, r.Topic, r.Task, r.Performance, r.Adaptation, monitor, remediation, summarizer, locker)

	orchestrator := agents.NewOrchestrator(log,
		agents.NewSchedulerAgent(planBuilder),
		agents.NewMonitorAgent(monitor),
		agents.NewAdaptationAgent(adaptation),
		agents.NewRemediationAgent(remediation),
	)

	scheduler := agents.NewSchedulerService(db, log, r.ScheduleEntry, r.StudyPlan, orchestrator)
	worker := agents.NewWorker(log, scheduler, cfg.SweepInterval)

	return Services{
		PlanLocker:   locker,
		PlanBuilder:  planBuilder,
		Readiness:    readiness,
		Progress:     progress,
		Monitor:      monitor,
		Remediation:  remediation,
		Adaptation:   adaptation,
		Cooldown:     cooldown,
		Summarizer:   summarizer,
		Orchestrator: orchestrator,
		Scheduler:    scheduler,
		AgentWorker:  worker,
	}, nil
}
