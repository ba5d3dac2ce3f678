package analysis

import (
	"testing"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

func storeWithStories(stories ...*model.UserStory) *model.Store {
	s := model.NewStore()
	for _, story := range stories {
		s.UserStories[story.ID] = story
	}
	return s
}

func planIDs(p Plan) []string {
	ids := make([]string, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestStoryPlanRespectsDependencies(t *testing.T) {
	s := storeWithStories(
		&model.UserStory{ID: "s1", Title: "Checkout", DependentUserStoryIDs: []string{"s2", "s3"}},
		&model.UserStory{ID: "s2", Title: "Cart"},
		&model.UserStory{ID: "s3", Title: "Catalog"},
	)

	plan := StoryPlan(s)
	if len(plan.Cycles) != 0 {
		t.Fatalf("unexpected cycles: %v", plan.Cycles)
	}
	ids := planIDs(plan)
	if len(ids) != 3 {
		t.Fatalf("expected 3 items, got %v", ids)
	}
	if indexOf(ids, "s2") > indexOf(ids, "s1") || indexOf(ids, "s3") > indexOf(ids, "s1") {
		t.Errorf("dependencies must precede the dependent: %v", ids)
	}

	// Orders are 1-based and consecutive.
	for i, item := range plan.Items {
		if item.DevelopmentOrder != i+1 {
			t.Errorf("item %d has order %d", i, item.DevelopmentOrder)
		}
	}
}

func TestStoryPlanStableWithoutDependencies(t *testing.T) {
	s := storeWithStories(
		&model.UserStory{ID: "b", Title: "Second", DevelopmentOrder: 2},
		&model.UserStory{ID: "a", Title: "First", DevelopmentOrder: 1},
		&model.UserStory{ID: "c", Title: "Third", DevelopmentOrder: 3},
	)

	ids := planIDs(StoryPlan(s))
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("authored order not preserved: got %v, want %v", ids, want)
		}
	}
}

func TestStoryPlanReportsCycles(t *testing.T) {
	s := storeWithStories(
		&model.UserStory{ID: "s1", Title: "A", DependentUserStoryIDs: []string{"s2"}},
		&model.UserStory{ID: "s2", Title: "B", DependentUserStoryIDs: []string{"s1"}},
		&model.UserStory{ID: "s3", Title: "C"},
	)

	plan := StoryPlan(s)
	if len(plan.Cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %v", plan.Cycles)
	}
	cycle := plan.Cycles[0]
	if len(cycle) != 2 || cycle[0] != "s1" || cycle[1] != "s2" {
		t.Errorf("cycle members wrong: %v", cycle)
	}
	// Every story still appears in the plan exactly once.
	if len(plan.Items) != 3 {
		t.Errorf("cyclic stories must still be planned: %v", planIDs(plan))
	}
	if !HasCycles(s) {
		t.Error("HasCycles should report true")
	}
}

func TestStoryPlanIgnoresDanglingEdges(t *testing.T) {
	s := storeWithStories(
		&model.UserStory{ID: "s1", Title: "A", DependentUserStoryIDs: []string{"ghost", "s1"}},
	)

	plan := StoryPlan(s)
	if len(plan.Items) != 1 || len(plan.Items[0].DependsOn) != 0 {
		t.Errorf("dangling and self edges should be dropped: %+v", plan.Items)
	}
	if len(plan.Cycles) != 0 {
		t.Errorf("self edge must not create a cycle: %v", plan.Cycles)
	}
}

func TestStoryPlanEmptyStore(t *testing.T) {
	plan := StoryPlan(model.NewStore())
	if len(plan.Items) != 0 || len(plan.Cycles) != 0 {
		t.Errorf("empty store should yield an empty plan: %+v", plan)
	}
}
