package app

import (
	"time"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/utils"
)

type Config struct {
	JWTSecretKey  string
	SweepInterval time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	sweepSeconds := utils.GetEnvAsInt("SWEEP_INTERVAL_SECONDS", 30, log)
	return Config{
		JWTSecretKey:  jwtSecretKey,
		SweepInterval: time.Duration(sweepSeconds) * time.Second,
	}
}
