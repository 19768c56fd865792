package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/utils"
)

// CooldownService bounds how often a user can force a re-run of an
// endpoint class. Advisory throttling, not a correctness mechanism: with no
// redis configured every check passes.
type CooldownService interface {
	// Check returns a RateLimited error when the (user, class) pair is still
	// inside its cooldown window, and opens a new window otherwise.
	Check(ctx context.Context, userID uuid.UUID, class string, window time.Duration) error
}

type redisCooldown struct {
	log    *logger.Logger
	client *redis.Client
}

func NewCooldownService(log *logger.Logger) (CooldownService, error) {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		return &noopCooldown{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisCooldown{log: log.With("service", "CooldownService"), client: client}, nil
}

func (s *redisCooldown) Check(ctx context.Context, userID uuid.UUID, class string, window time.Duration) error {
	key := fmt.Sprintf("cooldown:%s:%s", class, userID)
	ok, err := s.client.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		// Redis being down must not block the engine.
		s.log.Warn("Cooldown check failed, allowing request", "key", key, "error", err)
		return nil
	}
	if !ok {
		return apperr.RateLimited("%s already triggered within the last %s", class, window)
	}
	return nil
}

type noopCooldown struct{}

func (noopCooldown) Check(ctx context.Context, userID uuid.UUID, class string, window time.Duration) error {
	return nil
}
