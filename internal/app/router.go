package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/exampilot-backend/internal/server"
)

func wireRouter(h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:   m.Auth,
		TopicHandler:     h.Topic,
		PlanHandler:      h.Plan,
		TaskHandler:      h.Task,
		ReadinessHandler: h.Readiness,
		AlertHandler:     h.Alert,
		AgentHandler:     h.Agent,
		ScheduleHandler:  h.Schedule,
	})
}
