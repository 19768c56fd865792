package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/agents"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/middleware"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type ScheduleHandler struct {
	log       *logger.Logger
	scheduler agents.SchedulerService
}

func NewScheduleHandler(log *logger.Logger, scheduler agents.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{
		log:       log.With("handler", "ScheduleHandler"),
		scheduler: scheduler,
	}
}

type createEntryRequest struct {
	Agent           string         `json:"agent"`
	Sequence        string         `json:"sequence"`
	ScheduleType    string         `json:"schedule_type" binding:"required"`
	IntervalSeconds int64          `json:"interval_seconds"`
	Priority        int            `json:"priority"`
	Params          map[string]any `json:"params"`
	NextRun         *time.Time     `json:"next_run"`
	AllUsers        bool           `json:"all_users"`
}

// POST /api/schedule
func (h *ScheduleHandler) CreateEntry(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := agents.CreateEntryInput{
		ScheduleType: types.ScheduleType(req.ScheduleType),
		Interval:     time.Duration(req.IntervalSeconds) * time.Second,
		Priority:     req.Priority,
		Params:       req.Params,
	}
	if req.Agent != "" {
		agentType, err := agents.ParseAgentType(req.Agent)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "unknown_agent", err)
			return
		}
		input.AgentType = agentType
	}
	if req.Sequence != "" {
		seq, err := agents.ParseSequenceType(req.Sequence)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "unknown_sequence", err)
			return
		}
		input.SequenceType = seq
	}
	if !req.AllUsers {
		input.UserID = &userID
	}
	if req.NextRun != nil {
		input.NextRun = *req.NextRun
	}
	entry, err := h.scheduler.CreateEntry(c.Request.Context(), input)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

// GET /api/schedule
func (h *ScheduleHandler) ListEntries(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if c.Query("all") == "true" {
		entries, err := h.scheduler.ListEntries(c.Request.Context())
		if err != nil {
			RespondAppError(c, err)
			return
		}
		RespondOK(c, gin.H{"entries": entries})
		return
	}
	entries, err := h.scheduler.ListEntriesByUser(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}

// GET /api/schedule/:id
func (h *ScheduleHandler) GetEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entry_id", err)
		return
	}
	entry, err := h.scheduler.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

type updateEntryRequest struct {
	Enabled         *bool      `json:"enabled"`
	IntervalSeconds *int64     `json:"interval_seconds"`
	Priority        *int       `json:"priority"`
	NextRun         *time.Time `json:"next_run"`
}

// PATCH /api/schedule/:id
func (h *ScheduleHandler) UpdateEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entry_id", err)
		return
	}
	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updates := map[string]interface{}{}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.IntervalSeconds != nil {
		updates["interval"] = time.Duration(*req.IntervalSeconds) * time.Second
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.NextRun != nil {
		updates["next_run"] = *req.NextRun
	}
	if len(updates) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_update", nil)
		return
	}
	entry, err := h.scheduler.UpdateEntry(c.Request.Context(), entryID, updates)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

// DELETE /api/schedule/:id
func (h *ScheduleHandler) DeleteEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entry_id", err)
		return
	}
	if err := h.scheduler.DeleteEntry(c.Request.Context(), entryID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry_id": entryID, "deleted": true})
}

// POST /api/schedule/process-due
func (h *ScheduleHandler) ProcessDue(c *gin.Context) {
	report, err := h.scheduler.ProcessDue(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

// POST /api/schedule/ensure-monitoring
func (h *ScheduleHandler) EnsureMonitoring(c *gin.Context) {
	created, err := h.scheduler.EnsureMonitoringForAllUsers(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"created": created})
}
