package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/exampilot-backend/internal/logger"
)

// Worker drives the scheduler on a fixed tick. Each tick runs one
// ProcessDue sweep; a sweep that panics is logged and the loop keeps going.
type Worker struct {
	log       *logger.Logger
	scheduler SchedulerService
	interval  time.Duration
}

func NewWorker(baseLog *logger.Logger, scheduler SchedulerService, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{
		log:       baseLog.With("component", "AgentWorker"),
		scheduler: scheduler,
		interval:  interval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *Worker) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Sweep panic", "panic", fmt.Sprintf("%v", r))
		}
	}()
	if _, err := w.scheduler.ProcessDue(ctx); err != nil {
		w.log.Warn("ProcessDue failed", "error", err)
	}
}
