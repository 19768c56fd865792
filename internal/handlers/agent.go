package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/exampilot-backend/internal/agents"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/services"
)

const (
	monitorCooldown     = 10 * time.Minute
	remediationCooldown = 5 * time.Minute
)

type AgentHandler struct {
	log          *logger.Logger
	orchestrator *agents.Orchestrator
	cooldown     services.CooldownService
}

func NewAgentHandler(log *logger.Logger, orchestrator *agents.Orchestrator, cooldown services.CooldownService) *AgentHandler {
	return &AgentHandler{
		log:          log.With("handler", "AgentHandler"),
		orchestrator: orchestrator,
		cooldown:     cooldown,
	}
}

type runAgentRequest struct {
	Agent  string         `json:"agent" binding:"required"`
	Params map[string]any `json:"params"`
}

// POST /api/agents/run
func (h *AgentHandler) RunAgent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req runAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	agentType, err := agents.ParseAgentType(req.Agent)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unknown_agent", err)
		return
	}
	if window, class := cooldownFor(agentType); window > 0 {
		if err := h.cooldown.Check(c.Request.Context(), userID, class, window); err != nil {
			RespondAppError(c, err)
			return
		}
	}
	result, err := h.orchestrator.RunAgent(c.Request.Context(), agentType, userID, req.Params)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

type runSequenceRequest struct {
	Sequence string         `json:"sequence" binding:"required"`
	Params   map[string]any `json:"params"`
}

// POST /api/agents/sequence
func (h *AgentHandler) RunSequence(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req runSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seq, err := agents.ParseSequenceType(req.Sequence)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unknown_sequence", err)
		return
	}
	// Sequences always start with the monitor, so they share its cooldown.
	if err := h.cooldown.Check(c.Request.Context(), userID, "monitor", monitorCooldown); err != nil {
		RespondAppError(c, err)
		return
	}
	result, err := h.orchestrator.RunSequence(c.Request.Context(), seq, userID, req.Params)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

func cooldownFor(agentType agents.AgentType) (time.Duration, string) {
	switch agentType {
	case agents.AgentMonitor:
		return monitorCooldown, "monitor"
	case agents.AgentRemediation:
		return remediationCooldown, "remediation"
	default:
		return 0, ""
	}
}
