package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/services"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type PlanHandler struct {
	log      *logger.Logger
	builder  services.PlanBuilderService
	planRepo repos.StudyPlanRepo
	taskRepo repos.TaskRepo
}

func NewPlanHandler(log *logger.Logger, builder services.PlanBuilderService, planRepo repos.StudyPlanRepo, taskRepo repos.TaskRepo) *PlanHandler {
	return &PlanHandler{
		log:      log.With("handler", "PlanHandler"),
		builder:  builder,
		planRepo: planRepo,
		taskRepo: taskRepo,
	}
}

type buildPlanRequest struct {
	ExamDate     time.Time          `json:"exam_date" binding:"required"`
	Availability types.Availability `json:"availability" binding:"required"`
	WeakTopicIDs []uuid.UUID        `json:"weak_topic_ids"`
	Personalized bool               `json:"personalized"`
}

// POST /api/plans
func (h *PlanHandler) BuildPlan(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req buildPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.builder.BuildPlan(c.Request.Context(), services.BuildPlanInput{
		UserID:       userID,
		ExamDate:     req.ExamDate,
		Availability: req.Availability,
		WeakTopicIDs: req.WeakTopicIDs,
		Personalized: req.Personalized,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/plans/active
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	plan, err := h.planRepo.GetActiveByUserID(c.Request.Context(), nil, userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if plan == nil {
		RespondError(c, http.StatusNotFound, "no_active_plan", nil)
		return
	}
	tasks, err := h.taskRepo.GetByPlanID(c.Request.Context(), nil, plan.ID, repos.TaskFilter{})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": plan, "tasks": tasks})
}

// POST /api/plans/active/deactivate
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	plan, err := h.planRepo.GetActiveByUserID(c.Request.Context(), nil, userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if plan == nil {
		RespondError(c, http.StatusNotFound, "no_active_plan", nil)
		return
	}
	if err := h.planRepo.UpdateFields(c.Request.Context(), nil, plan.ID, map[string]interface{}{
		"is_active": false,
	}); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan_id": plan.ID, "deactivated": true})
}
