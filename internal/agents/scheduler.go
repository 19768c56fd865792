package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

const (
	// A claim older than this is treated as abandoned by a dead sweep.
	staleClaimTimeout = 5 * time.Minute

	defaultMonitorInterval = 24 * time.Hour

	sweepConcurrency = 4
)

type CreateEntryInput struct {
	AgentType    AgentType
	SequenceType SequenceType
	ScheduleType types.ScheduleType
	UserID       *uuid.UUID
	Interval     time.Duration
	Priority     int
	Params       map[string]any
	NextRun      time.Time
}

// SweepReport summarizes one due-entry processing pass.
type SweepReport struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	EntryIDs  []string `json:"entry_ids,omitempty"`
}

// SchedulerService owns ScheduleEntry records and executes due entries
// through the orchestrator, at most once per due occurrence.
type SchedulerService interface {
	CreateEntry(ctx context.Context, input CreateEntryInput) (*types.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	GetEntry(ctx context.Context, id uuid.UUID) (*types.ScheduleEntry, error)
	ListEntries(ctx context.Context) ([]*types.ScheduleEntry, error)
	ListEntriesByUser(ctx context.Context, userID uuid.UUID) ([]*types.ScheduleEntry, error)

	// ProcessDue claims and executes every due entry once. Overlapping
	// passes skip entries already in flight.
	ProcessDue(ctx context.Context) (*SweepReport, error)

	// EnsureMonitoringForAllUsers creates a standard monitoring entry for
	// every user with an active plan who lacks one. Returns how many were
	// created.
	EnsureMonitoringForAllUsers(ctx context.Context) (int, error)
}

type schedulerService struct {
	db           *gorm.DB
	log          *logger.Logger
	entryRepo    repos.ScheduleEntryRepo
	planRepo     repos.StudyPlanRepo
	orchestrator *Orchestrator
	now          func() time.Time
}

func NewSchedulerService(db *gorm.DB, log *logger.Logger, entryRepo repos.ScheduleEntryRepo, planRepo repos.StudyPlanRepo, orchestrator *Orchestrator) SchedulerService {
	return &schedulerService{
		db:           db,
		log:          log.With("service", "SchedulerService"),
		entryRepo:    entryRepo,
		planRepo:     planRepo,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

func (s *schedulerService) CreateEntry(ctx context.Context, input CreateEntryInput) (*types.ScheduleEntry, error) {
	if input.AgentType == "" && input.SequenceType == "" {
		return nil, apperr.DataIntegrity("agent type or sequence type is required")
	}
	if input.ScheduleType == types.ScheduleRecurring && input.Interval <= 0 {
		return nil, apperr.DataIntegrity("recurring entry needs a positive interval")
	}
	nextRun := input.NextRun
	if nextRun.IsZero() {
		nextRun = s.now()
	}
	row := &types.ScheduleEntry{
		ID:           uuid.New(),
		AgentType:    string(input.AgentType),
		SequenceType: string(input.SequenceType),
		ScheduleType: input.ScheduleType,
		UserID:       input.UserID,
		Interval:     input.Interval,
		Priority:     input.Priority,
		Enabled:      true,
		Params:       mustJSON(input.Params),
		NextRun:      nextRun,
	}
	return s.entryRepo.Create(ctx, nil, row)
}

func mustJSON(v map[string]any) []byte {
	if v == nil {
		return []byte("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}

func (s *schedulerService) UpdateEntry(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.ScheduleEntry, error) {
	if err := s.entryRepo.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, fmt.Errorf("update schedule entry: %w", err)
	}
	return s.GetEntry(ctx, id)
}

func (s *schedulerService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.entryRepo.Delete(ctx, nil, id)
}

func (s *schedulerService) GetEntry(ctx context.Context, id uuid.UUID) (*types.ScheduleEntry, error) {
	rows, err := s.entryRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("schedule entry %s not found", id)
	}
	return rows[0], nil
}

func (s *schedulerService) ListEntries(ctx context.Context) ([]*types.ScheduleEntry, error) {
	return s.entryRepo.GetAll(ctx, nil)
}

func (s *schedulerService) ListEntriesByUser(ctx context.Context, userID uuid.UUID) ([]*types.ScheduleEntry, error) {
	return s.entryRepo.GetByUserID(ctx, nil, userID)
}

func (s *schedulerService) ProcessDue(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for {
		entry, err := s.entryRepo.ClaimNextDue(ctx, nil, s.now(), staleClaimTimeout)
		if err != nil {
			return nil, fmt.Errorf("claim due entry: %w", err)
		}
		if entry == nil {
			break
		}
		report.Processed++
		report.EntryIDs = append(report.EntryIDs, entry.ID.String())
		claimed := entry
		g.Go(func() error {
			err := s.executeEntry(gctx, claimed)
			mu.Lock()
			if err != nil {
				report.Failed++
			} else {
				report.Succeeded++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if report.Processed > 0 {
		s.log.Info("Due-entry sweep finished", "processed", report.Processed, "succeeded", report.Succeeded, "failed", report.Failed)
	}
	return report, nil
}

// executeEntry runs one claimed entry and always releases the claim with
// the recorded outcome. Execution errors are per-entry results, not sweep
// failures.
func (s *schedulerService) executeEntry(ctx context.Context, entry *types.ScheduleEntry) error {
	runErr := s.invoke(ctx, entry)

	result := "ok"
	if runErr != nil {
		result = runErr.Error()
		s.log.Warn("Scheduled run failed", "entry_id", entry.ID, "error", runErr)
	}
	var nextRun *time.Time
	disable := false
	if entry.ScheduleType == types.ScheduleRecurring {
		n := s.now().Add(entry.Interval)
		nextRun = &n
	} else {
		disable = true
	}
	if err := s.entryRepo.CompleteRun(ctx, nil, entry.ID, result, nextRun, disable); err != nil {
		s.log.Error("Failed to complete schedule entry run", "entry_id", entry.ID, "error", err)
		return err
	}
	return runErr
}

func (s *schedulerService) invoke(ctx context.Context, entry *types.ScheduleEntry) error {
	var params map[string]any
	if len(entry.Params) > 0 {
		_ = json.Unmarshal(entry.Params, &params)
	}

	userIDs := []uuid.UUID{}
	if entry.UserID != nil {
		userIDs = append(userIDs, *entry.UserID)
	} else {
		// Absent user = per-user fan-out across active plans.
		ids, err := s.planRepo.GetActiveUserIDs(ctx, nil)
		if err != nil {
			return fmt.Errorf("fan-out user lookup: %w", err)
		}
		userIDs = ids
	}

	var firstErr error
	for _, userID := range userIDs {
		var err error
		if entry.SequenceType != "" {
			seq, perr := ParseSequenceType(entry.SequenceType)
			if perr != nil {
				return perr
			}
			_, err = s.orchestrator.RunSequence(ctx, seq, userID, params)
		} else {
			agentType, perr := ParseAgentType(entry.AgentType)
			if perr != nil {
				return perr
			}
			_, err = s.orchestrator.RunAgent(ctx, agentType, userID, params)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *schedulerService) EnsureMonitoringForAllUsers(ctx context.Context) (int, error) {
	userIDs, err := s.planRepo.GetActiveUserIDs(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch active users: %w", err)
	}
	covered, err := s.entryRepo.GetEnabledUserIDs(ctx, nil, string(AgentMonitor))
	if err != nil {
		return 0, fmt.Errorf("fetch covered users: %w", err)
	}
	has := make(map[uuid.UUID]bool, len(covered))
	for _, id := range covered {
		has[id] = true
	}
	created := 0
	for _, userID := range userIDs {
		if has[userID] {
			continue
		}
		uid := userID
		_, err := s.CreateEntry(ctx, CreateEntryInput{
			AgentType:    AgentMonitor,
			SequenceType: SequenceStandard,
			ScheduleType: types.ScheduleRecurring,
			UserID:       &uid,
			Interval:     defaultMonitorInterval,
		})
		if err != nil {
			return created, fmt.Errorf("create monitoring entry for user %s: %w", userID, err)
		}
		created++
	}
	if created > 0 {
		s.log.Info("Fanned out standard monitoring entries", "created", created)
	}
	return created, nil
}
