package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type TopicHandler struct {
	log       *logger.Logger
	topicRepo repos.TopicRepo
}

func NewTopicHandler(log *logger.Logger, topicRepo repos.TopicRepo) *TopicHandler {
	return &TopicHandler{log: log.With("handler", "TopicHandler"), topicRepo: topicRepo}
}

// GET /api/topics?category=
func (h *TopicHandler) ListTopics(c *gin.Context) {
	if cat := c.Query("category"); cat != "" {
		topics, err := h.topicRepo.GetByCategory(c.Request.Context(), nil, types.TopicCategory(cat))
		if err != nil {
			RespondAppError(c, err)
			return
		}
		RespondOK(c, gin.H{"topics": topics})
		return
	}
	topics, err := h.topicRepo.GetAll(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"topics": topics})
}
