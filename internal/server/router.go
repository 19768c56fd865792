package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/exampilot-backend/internal/handlers"
	"github.com/yungbote/exampilot-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	TopicHandler     *handlers.TopicHandler
	PlanHandler      *handlers.PlanHandler
	TaskHandler      *handlers.TaskHandler
	ReadinessHandler *handlers.ReadinessHandler
	AlertHandler     *handlers.AlertHandler
	AgentHandler     *handlers.AgentHandler
	ScheduleHandler  *handlers.ScheduleHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("exampilot-backend"))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Topics
	api.GET("/topics", cfg.TopicHandler.ListTopics)

	// Plans
	api.POST("/plans", cfg.PlanHandler.BuildPlan)
	api.GET("/plans/active", cfg.PlanHandler.GetActivePlan)
	api.POST("/plans/active/deactivate", cfg.PlanHandler.DeactivatePlan)

	// Tasks and performance
	api.GET("/tasks", cfg.TaskHandler.ListTasks)
	api.POST("/tasks/:id/status", cfg.TaskHandler.TransitionStatus)
	api.POST("/performances", cfg.TaskHandler.RecordPerformance)

	// Readiness
	api.POST("/readiness/compute", cfg.ReadinessHandler.Compute)
	api.GET("/readiness/latest", cfg.ReadinessHandler.Latest)
	api.GET("/readiness/history", cfg.ReadinessHandler.History)

	// Alerts
	api.GET("/alerts", cfg.AlertHandler.ListAlerts)
	api.POST("/alerts/:id/resolve", cfg.AlertHandler.ResolveAlert)

	// Agents
	api.POST("/agents/run", cfg.AgentHandler.RunAgent)
	api.POST("/agents/sequence", cfg.AgentHandler.RunSequence)

	// Schedule
	api.POST("/schedule", cfg.ScheduleHandler.CreateEntry)
	api.GET("/schedule", cfg.ScheduleHandler.ListEntries)
	api.GET("/schedule/:id", cfg.ScheduleHandler.GetEntry)
	api.PATCH("/schedule/:id", cfg.ScheduleHandler.UpdateEntry)
	api.DELETE("/schedule/:id", cfg.ScheduleHandler.DeleteEntry)
	api.POST("/schedule/process-due", cfg.ScheduleHandler.ProcessDue)
	api.POST("/schedule/ensure-monitoring", cfg.ScheduleHandler.EnsureMonitoring)

	return router
}
