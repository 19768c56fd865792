package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/exampilot-backend/internal/apperr"
	"github.com/yungbote/exampilot-backend/internal/types"
)

func graphTopic(t *testing.T, name string, prereqs ...uuid.UUID) *types.Topic {
	t.Helper()
	topic := &types.Topic{ID: uuid.New(), Name: name}
	if len(prereqs) > 0 {
		raw, err := json.Marshal(prereqs)
		if err != nil {
			t.Fatalf("marshal prereqs: %v", err)
		}
		topic.Prerequisites = raw
	}
	return topic
}

func TestTopologicalOrder_PrerequisitesFirst(t *testing.T) {
	a := graphTopic(t, "a")
	b := graphTopic(t, "b", a.ID)
	c := graphTopic(t, "c", b.ID)

	g, err := NewTopicGraph([]*types.Topic{c, b, a})
	if err != nil {
		t.Fatalf("NewTopicGraph: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	pos := map[uuid.UUID]int{}
	for i, id := range order {
		pos[id] = i
	}
	if !(pos[a.ID] < pos[b.ID] && pos[b.ID] < pos[c.ID]) {
		t.Fatalf("prerequisite order violated: %v", pos)
	}
}

func TestTopologicalOrder_CycleIsDataIntegrity(t *testing.T) {
	aID, bID := uuid.New(), uuid.New()
	a := &types.Topic{ID: aID, Name: "a"}
	rawB, _ := json.Marshal([]uuid.UUID{aID})
	rawA, _ := json.Marshal([]uuid.UUID{bID})
	a.Prerequisites = rawA
	b := &types.Topic{ID: bID, Name: "b", Prerequisites: rawB}

	g, err := NewTopicGraph([]*types.Topic{a, b})
	if err != nil {
		t.Fatalf("NewTopicGraph: %v", err)
	}
	_, err = g.TopologicalOrder()
	if !apperr.IsKind(err, apperr.KindDataIntegrity) {
		t.Fatalf("expected DataIntegrity on cycle, got %v", err)
	}
}

func TestTopologicalOrder_IgnoresPrereqsOutsideSet(t *testing.T) {
	outside := uuid.New()
	a := graphTopic(t, "a", outside)

	g, err := NewTopicGraph([]*types.Topic{a})
	if err != nil {
		t.Fatalf("NewTopicGraph: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if len(order) != 1 || order[0] != a.ID {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestOrderByPriority_PrefersPriorityWithinDAG(t *testing.T) {
	a := graphTopic(t, "a")
	b := graphTopic(t, "b", a.ID)
	c := graphTopic(t, "c")

	g, err := NewTopicGraph([]*types.Topic{a, b, c})
	if err != nil {
		t.Fatalf("NewTopicGraph: %v", err)
	}
	// b is highest priority but depends on a; c is independent.
	out, err := g.OrderByPriority([]uuid.UUID{b.ID, c.ID, a.ID})
	if err != nil {
		t.Fatalf("OrderByPriority: %v", err)
	}
	// First ready topic in priority order is c, then a unblocks b.
	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, out[i], want[i])
		}
	}
}
