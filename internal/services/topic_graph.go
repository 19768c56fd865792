package services

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/types"
)

// TopicGraph is the prerequisite DAG over a topic set. It exists for
// validity checks and ordering; the engine never creates topics.
type TopicGraph struct {
	byID  map[uuid.UUID]*types.Topic
	edges map[uuid.UUID][]uuid.UUID
}

func NewTopicGraph(topics []*types.Topic) (*TopicGraph, error) {
	g := &TopicGraph{
		byID:  make(map[uuid.UUID]*types.Topic, len(topics)),
		edges: make(map[uuid.UUID][]uuid.UUID, len(topics)),
	}
	for _, t := range topics {
		g.byID[t.ID] = t
		prereqs, err := decodePrerequisites(t)
		if err != nil {
			return nil, apperr.DataIntegrity("topic %s: malformed prerequisites: %v", t.ID, err)
		}
		g.edges[t.ID] = prereqs
	}
	return g, nil
}

func decodePrerequisites(t *types.Topic) ([]uuid.UUID, error) {
	if len(t.Prerequisites) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(t.Prerequisites, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (g *TopicGraph) Topic(id uuid.UUID) *types.Topic {
	return g.byID[id]
}

// TopologicalOrder returns topic ids with every prerequisite before its
// dependents. A cycle is a DataIntegrity error, never silently repaired.
func (g *TopicGraph) TopologicalOrder() ([]uuid.UUID, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[uuid.UUID]int, len(g.byID))
	order := make([]uuid.UUID, 0, len(g.byID))

	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return apperr.DataIntegrity("prerequisite cycle detected at topic %s", id)
		}
		state[id] = visiting
		for _, dep := range g.edges[id] {
			if _, ok := g.byID[dep]; !ok {
				// Prerequisite outside the working set constrains nothing.
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for id := range g.byID {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// OrderByPriority arranges the given priority-sorted ids so that every
// prerequisite inside the set comes before its dependents, preferring
// higher-priority topics wherever the DAG allows. The input order is the
// tiebreaker, so the result is deterministic.
func (g *TopicGraph) OrderByPriority(prioritized []uuid.UUID) ([]uuid.UUID, error) {
	if _, err := g.TopologicalOrder(); err != nil {
		return nil, err
	}
	inSet := make(map[uuid.UUID]bool, len(prioritized))
	for _, id := range prioritized {
		inSet[id] = true
	}
	emitted := make(map[uuid.UUID]bool, len(prioritized))
	out := make([]uuid.UUID, 0, len(prioritized))
	remaining := append([]uuid.UUID(nil), prioritized...)
	for len(remaining) > 0 {
		picked := -1
		for i, id := range remaining {
			ready := true
			for _, dep := range g.edges[id] {
				if inSet[dep] && !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				picked = i
				break
			}
		}
		if picked < 0 {
			return nil, apperr.DataIntegrity("prerequisite cycle detected among %d topics", len(remaining))
		}
		id := remaining[picked]
		out = append(out, id)
		emitted[id] = true
		remaining = append(remaining[:picked], remaining[picked+1:]...)
	}
	return out, nil
}
