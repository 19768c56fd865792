package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
)

type Repos struct {
	Topic         repos.TopicRepo
	StudyPlan     repos.StudyPlanRepo
	Task          repos.TaskRepo
	Performance   repos.PerformanceRepo
	Readiness     repos.ReadinessRepo
	Alert         repos.AlertRepo
	Adaptation    repos.AdaptationRepo
	ScheduleEntry repos.ScheduleEntryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Topic:         repos.NewTopicRepo(db, log),
		StudyPlan:     repos.NewStudyPlanRepo(db, log),
		Task:          repos.NewTaskRepo(db, log),
		Performance:   repos.NewPerformanceRepo(db, log),
		Readiness:     repos.NewReadinessRepo(db, log),
		Alert:         repos.NewAlertRepo(db, log),
		Adaptation:    repos.NewAdaptationRepo(db, log),
		ScheduleEntry: repos.NewScheduleEntryRepo(db, log),
	}
}
