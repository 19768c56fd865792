package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/services"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type TaskHandler struct {
	log      *logger.Logger
	progress services.ProgressService
	planRepo repos.StudyPlanRepo
	taskRepo repos.TaskRepo
}

func NewTaskHandler(log *logger.Logger, progress services.ProgressService, planRepo repos.StudyPlanRepo, taskRepo repos.TaskRepo) *TaskHandler {
	return &TaskHandler{
		log:      log.With("handler", "TaskHandler"),
		progress: progress,
		planRepo: planRepo,
		taskRepo: taskRepo,
	}
}

// GET /api/tasks?status=&topic_id=&type=&from=&to=
func (h *TaskHandler) ListTasks(c *gin.Context) {
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
		RespondOK(c, gin.H{"tasks": []*types.Task{}})
		return
	}
	filter := repos.TaskFilter{}
	if s := c.Query("status"); s != "" {
		filter.Statuses = []types.TaskStatus{types.TaskStatus(s)}
	}
	if t := c.Query("topic_id"); t != "" {
		topicID, perr := uuid.Parse(t)
		if perr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_topic_id", perr)
			return
		}
		filter.TopicID = topicID
	}
	if t := c.Query("type"); t != "" {
		filter.Type = types.TaskType(t)
	}
	if from := c.Query("from"); from != "" {
		ts, perr := time.Parse(time.RFC3339, from)
		if perr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_from", perr)
			return
		}
		filter.StartAfter = &ts
	}
	if to := c.Query("to"); to != "" {
		ts, perr := time.Parse(time.RFC3339, to)
		if perr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_to", perr)
			return
		}
		filter.EndBefore = &ts
	}
	tasks, err := h.taskRepo.GetByPlanID(c.Request.Context(), nil, plan.ID, filter)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}

type transitionRequest struct {
	Status types.TaskStatus `json:"status" binding:"required"`
}

// POST /api/tasks/:id/status
func (h *TaskHandler) TransitionStatus(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.progress.ApplyStatusTransition(c.Request.Context(), taskID, req.Status)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

type performanceRequest struct {
	TaskID     uuid.UUID                 `json:"task_id" binding:"required"`
	Score      *float64                  `json:"score"`
	TimeSpent  int                       `json:"time_spent"`
	Confidence int                       `json:"confidence"`
	ContentRef *string                   `json:"content_ref"`
	Answers    []types.PerformanceAnswer `json:"answers"`
}

// POST /api/performances
func (h *TaskHandler) RecordPerformance(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req performanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tasks, err := h.taskRepo.GetByIDs(c.Request.Context(), nil, []uuid.UUID{req.TaskID})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if len(tasks) == 0 {
		RespondError(c, http.StatusNotFound, "task_not_found", nil)
		return
	}
	task := tasks[0]
	row := &types.Performance{
		UserID:     userID,
		TaskID:     task.ID,
		TopicID:    task.TopicID,
		Score:      req.Score,
		TimeSpent:  req.TimeSpent,
		Confidence: req.Confidence,
		ContentRef: req.ContentRef,
		Completed:  true,
	}
	if len(req.Answers) > 0 {
		raw, merr := encodeAnswers(req.Answers)
		if merr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_answers", merr)
			return
		}
		row.Answers = raw
	}
	created, err := h.progress.RecordPerformance(c.Request.Context(), row)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"performance": created})
}

func encodeAnswers(answers []types.PerformanceAnswer) (datatypes.JSON, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
