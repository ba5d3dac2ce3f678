// Package analysis derives development plans from the dependency edges
// user stories declare on each other. The hierarchy defines containment;
// these edges define sequencing, and the plan reconciles the two.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

// PlanItem is one user story in dependency-respecting order.
type PlanItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	FeatureID        string   `json:"featureId"`
	DevelopmentOrder int      `json:"developmentOrder"` // suggested, 1-based
	DependsOn        []string `json:"dependsOn"`
}

// Plan is the full ordering plus any dependency cycles that made parts of
// it unorderable. Stories inside a cycle keep their authored order and are
// reported so the author can break the loop.
type Plan struct {
	Items  []PlanItem `json:"items"`
	Cycles [][]string `json:"cycles,omitempty"`
}

// StoryPlan computes a development order for every user story in the
// store. Dependency edges pointing at ids that do not exist are ignored
// (the normalizer starts stories with no edges; authors add them later and
// may delete a story without cleaning up its dependents).
func StoryPlan(s *model.Store) Plan {
	ids := make([]string, 0, len(s.UserStories))
	for id := range s.UserStories {
		ids = append(ids, id)
	}
	// Stable base order: authored developmentOrder, then title, then id.
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.UserStories[ids[i]], s.UserStories[ids[j]]
		if a.DevelopmentOrder != b.DevelopmentOrder {
			return a.DevelopmentOrder < b.DevelopmentOrder
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})

	index := make(map[string]int64, len(ids))
	byNode := make(map[int64]string, len(ids))
	g := simple.NewDirectedGraph()
	for i, id := range ids {
		n := simple.Node(int64(i))
		index[id] = int64(i)
		byNode[int64(i)] = id
		g.AddNode(n)
	}

	for _, id := range ids {
		story := s.UserStories[id]
		for _, depID := range story.DependentUserStoryIDs {
			from, ok := index[depID]
			if !ok || depID == id {
				continue
			}
			to := index[id]
			if g.HasEdgeFromTo(from, to) {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	stabilize := func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].ID() < nodes[j].ID()
		})
	}

	ordered, err := topo.SortStabilized(g, stabilize)

	plan := Plan{}
	if unorderable, ok := err.(topo.Unorderable); ok {
		for _, cycle := range unorderable {
			cycleIDs := make([]string, 0, len(cycle))
			for _, n := range cycle {
				cycleIDs = append(cycleIDs, byNode[n.ID()])
			}
			sort.Strings(cycleIDs)
			plan.Cycles = append(plan.Cycles, cycleIDs)
		}
	}

	position := 1
	emit := func(id string) {
		story := s.UserStories[id]
		depends := make([]string, 0, len(story.DependentUserStoryIDs))
		for _, depID := range story.DependentUserStoryIDs {
			if _, ok := index[depID]; ok && depID != id {
				depends = append(depends, depID)
			}
		}
		plan.Items = append(plan.Items, PlanItem{
			ID:               id,
			Title:            story.Title,
			FeatureID:        story.ParentFeatureID,
			DevelopmentOrder: position,
			DependsOn:        depends,
		})
		position++
	}

	emitted := make(map[string]bool, len(ids))
	for _, n := range ordered {
		// Unorderable positions come back nil; their stories are appended
		// below in authored order.
		if n == nil {
			continue
		}
		id := byNode[n.ID()]
		emit(id)
		emitted[id] = true
	}
	for _, id := range ids {
		if !emitted[id] {
			emit(id)
		}
	}

	return plan
}

// HasCycles reports whether the store's story dependencies contain a loop.
func HasCycles(s *model.Store) bool {
	return len(StoryPlan(s).Cycles) > 0
}
