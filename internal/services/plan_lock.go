package services

import (
	"sync"

	"github.com/google/uuid"
)

// PlanLocker serializes mutating runs per plan id. Monitor alert writes and a
// concurrent adaptation pass for the same plan must not interleave; runs for
// different plans proceed independently.
type PlanLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewPlanLocker() *PlanLocker {
	return &PlanLocker{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (l *PlanLocker) Lock(planID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[planID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[planID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
