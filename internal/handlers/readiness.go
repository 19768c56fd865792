package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/services"
)

type ReadinessHandler struct {
	log       *logger.Logger
	readiness services.ReadinessService
}

func NewReadinessHandler(log *logger.Logger, readiness services.ReadinessService) *ReadinessHandler {
	return &ReadinessHandler{
		log:       log.With("handler", "ReadinessHandler"),
		readiness: readiness,
	}
}

// POST /api/readiness/compute
func (h *ReadinessHandler) Compute(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	score, err := h.readiness.Compute(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if score == nil {
		RespondOK(c, gin.H{"score": nil, "reason": "no performance data"})
		return
	}
	RespondOK(c, gin.H{"score": score})
}

// GET /api/readiness/latest
func (h *ReadinessHandler) Latest(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	score, err := h.readiness.Latest(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"score": score})
}

// GET /api/readiness/history?limit=
func (h *ReadinessHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit := 30
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = parsed
	}
	history, err := h.readiness.History(c.Request.Context(), userID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"history": history})
}
