package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/exampilot-backend/internal/logger"
	"github.com/yungbote/exampilot-backend/internal/repos"
	"github.com/yungbote/exampilot-backend/internal/types"
)

const (
	weakAreaThreshold   = 65.0
	strongAreaThreshold = 80.0

	// Proxy scores for non-graded work: finishing a session is evidence,
	// skipping it is counter-evidence.
	completedProxyScore = 70.0
	missedProxyScore    = 30.0
)

type ReadinessService interface {
	// Compute aggregates all performance history into a fresh ReadinessScore
	// row. A user with no active plan or no performance data yields (nil, nil).
	Compute(ctx context.Context, userID uuid.UUID) (*types.ReadinessScore, error)
	Latest(ctx context.Context, userID uuid.UUID) (*types.ReadinessScore, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReadinessScore, error)
}

type readinessService struct {
	db            *gorm.DB
	log           *logger.Logger
	planRepo      repos.StudyPlanRepo
	topicRepo     repos.TopicRepo
	perfRepo      repos.PerformanceRepo
	readinessRepo repos.ReadinessRepo
}

func NewReadinessService(db *gorm.DB, log *logger.Logger, planRepo repos.StudyPlanRepo, topicRepo repos.TopicRepo, perfRepo repos.PerformanceRepo, readinessRepo repos.ReadinessRepo) ReadinessService {
	return &readinessService{
		db:            db,
		log:           log.With("service", "ReadinessService"),
		planRepo:      planRepo,
		topicRepo:     topicRepo,
		perfRepo:      perfRepo,
		readinessRepo: readinessRepo,
	}
}

func (s *readinessService) Latest(ctx context.Context, userID uuid.UUID) (*types.ReadinessScore, error) {
	return s.readinessRepo.GetLatestByUserID(ctx, nil, userID)
}

func (s *readinessService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReadinessScore, error) {
	return s.readinessRepo.GetHistoryByUserID(ctx, nil, userID, limit)
}

func (s *readinessService) Compute(ctx context.Context, userID uuid.UUID) (*types.ReadinessScore, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active plan: %w", err)
	}
	if plan == nil {
		return nil, nil
	}
	perfs, err := s.perfRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch performance: %w", err)
	}
	if len(perfs) == 0 {
		return nil, nil
	}

	topics, err := s.topicRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch topics: %w", err)
	}
	topicByID := make(map[uuid.UUID]*types.Topic, len(topics))
	importanceByCategory := map[types.TopicCategory]float64{}
	for _, t := range topics {
		topicByID[t.ID] = t
		importanceByCategory[t.Category] += float64(t.Importance)
	}

	type agg struct{ weighted, weight float64 }
	byCategory := map[types.TopicCategory]*agg{}
	for _, p := range perfs {
		topic, ok := topicByID[p.TopicID]
		if !ok {
			continue
		}
		score := effectiveScore(p)
		confidence := float64(p.Confidence)
		if confidence < 1 {
			confidence = 1
		}
		a := byCategory[topic.Category]
		if a == nil {
			a = &agg{}
			byCategory[topic.Category] = a
		}
		a.weighted += score * confidence
		a.weight += confidence
	}

	categoryScores := map[types.TopicCategory]float64{}
	var overallWeighted, overallWeight float64
	var weakAreas, strongAreas []types.TopicCategory
	for cat, a := range byCategory {
		if a.weight == 0 {
			continue
		}
		score := clampScore(a.weighted / a.weight)
		categoryScores[cat] = score
		w := importanceByCategory[cat]
		if w <= 0 {
			w = 1
		}
		overallWeighted += score * w
		overallWeight += w
		if score < weakAreaThreshold {
			weakAreas = append(weakAreas, cat)
		} else if score > strongAreaThreshold {
			strongAreas = append(strongAreas, cat)
		}
	}
	if overallWeight == 0 {
		return nil, nil
	}
	overall := clampScore(overallWeighted / overallWeight)

	projected := overall
	if prev, err := s.readinessRepo.GetLatestByUserID(ctx, nil, userID); err == nil && prev != nil {
		projected = clampScore(overall + (overall-prev.OverallScore)*0.5)
	}

	row := &types.ReadinessScore{
		ID:             uuid.New(),
		UserID:         userID,
		OverallScore:   overall,
		CategoryScores: encodeJSON(categoryScores),
		WeakAreas:      encodeJSON(weakAreas),
		StrongAreas:    encodeJSON(strongAreas),
		ProjectedScore: projected,
		CreatedAt:      time.Now(),
	}
	if _, err := s.readinessRepo.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("persist readiness score: %w", err)
	}
	s.log.Debug("Computed readiness", "user_id", userID, "overall", overall, "weak_areas", len(weakAreas))
	return row, nil
}

// effectiveScore is the graded score when present, else a completion proxy.
func effectiveScore(p *types.Performance) float64 {
	if p.Score != nil {
		return clampScore(*p.Score)
	}
	if p.Completed {
		return completedProxyScore
	}
	return missedProxyScore
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
