package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type AlertHandler struct {
	log       *logger.Logger
	alertRepo repos.AlertRepo
}

func NewAlertHandler(log *logger.Logger, alertRepo repos.AlertRepo) *AlertHandler {
	return &AlertHandler{log: log.With("handler", "AlertHandler"), alertRepo: alertRepo}
}

// GET /api/alerts?type=&resolved=
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	filter := repos.AlertFilter{}
	if t := c.Query("type"); t != "" {
		filter.Type = types.AlertType(t)
	}
	switch c.Query("resolved") {
	case "true":
		v := true
		filter.IsResolved = &v
	case "false":
		v := false
		filter.IsResolved = &v
	}
	alerts, err := h.alertRepo.GetByUserID(c.Request.Context(), nil, userID, filter)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"alerts": alerts})
}

// POST /api/alerts/:id/resolve
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_alert_id", err)
		return
	}
	if err := h.alertRepo.ResolveByIDs(c.Request.Context(), nil, []uuid.UUID{alertID}); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"alert_id": alertID, "resolved": true})
}
