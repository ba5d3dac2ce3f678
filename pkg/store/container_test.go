package store

import (
	"fmt"
	"testing"

	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/move"
	"pgregory.net/rapid"
)

func seedStore() *model.Store {
	s := model.NewStore()
	s.ID = "app"
	s.Epics["e1"] = &model.Epic{ID: "e1", ParentAppID: "app", Title: "Billing", FeatureIDs: []string{"f1"}}
	s.Epics["e2"] = &model.Epic{ID: "e2", ParentAppID: "app", Title: "Auth", FeatureIDs: []string{}}
	s.Features["f1"] = &model.Feature{ID: "f1", ParentEpicID: "e1", Title: "Invoices", UserStoryIDs: []string{"s1"}}
	s.UserStories["s1"] = &model.UserStory{ID: "s1", ParentFeatureID: "f1", Title: "Download invoice", TaskIDs: []string{"t1", "t2"}}
	s.Tasks["t1"] = &model.Task{ID: "t1", ParentUserStoryID: "s1", Title: "Render PDF"}
	s.Tasks["t2"] = &model.Task{ID: "t2", ParentUserStoryID: "s1", Title: "Email link"}
	return s
}

func TestApplyMovePlan(t *testing.T) {
	c := New(seedStore())

	// Plan produced the way the engine produces it.
	sess := move.NewSession(c.Snapshot())
	sess.Start(move.Item{ID: "f1", Type: model.TypeFeature, Title: "Invoices", ParentID: "e1"})
	var target move.PotentialParent
	for _, p := range sess.Candidates() {
		if p.ID == "e2" {
			target = p
		}
	}
	sess.SelectParent(target)
	plan := sess.Execute()
	if plan == nil || !plan.Success {
		t.Fatalf("expected a successful plan, got %+v", plan)
	}

	if err := c.Apply(model.TypeFeature, plan); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := c.Check(); err != nil {
		t.Fatalf("invariants broken after apply: %v", err)
	}

	snap := c.Snapshot()
	if snap.Features["f1"].ParentEpicID != "e2" {
		t.Errorf("parent field not updated: %q", snap.Features["f1"].ParentEpicID)
	}
	if len(snap.Epics["e1"].FeatureIDs) != 0 {
		t.Errorf("old parent still lists the feature: %v", snap.Epics["e1"].FeatureIDs)
	}
	if len(snap.Epics["e2"].FeatureIDs) != 1 || snap.Epics["e2"].FeatureIDs[0] != "f1" {
		t.Errorf("new parent does not list the feature: %v", snap.Epics["e2"].FeatureIDs)
	}
}

func TestApplyRejectsBadPlans(t *testing.T) {
	c := New(seedStore())

	if err := c.Apply(model.TypeFeature, nil); err == nil {
		t.Error("nil plan should be rejected")
	}
	failed := &move.Result{ItemID: "f1", FromParentID: "e1", ToParentID: "e1"}
	if err := c.Apply(model.TypeFeature, failed); err == nil {
		t.Error("unsuccessful plan should be rejected")
	}
	gone := &move.Result{Success: true, ItemID: "f1", FromParentID: "e1", ToParentID: "ghost"}
	if err := c.Apply(model.TypeFeature, gone); err == nil {
		t.Error("plan targeting a missing parent should be rejected")
	}
	if err := c.Check(); err != nil {
		t.Errorf("rejected plans must leave the store intact: %v", err)
	}
}

// Two plans built from the same snapshot race for the same item: the
// second one's from-parent no longer matches and must be rejected whole.
func TestApplyRejectsPlanWithStaleFromParent(t *testing.T) {
	s := seedStore()
	s.Epics["e3"] = &model.Epic{ID: "e3", ParentAppID: "app", Title: "Support", FeatureIDs: []string{}}
	c := New(s)

	snap := c.Snapshot()
	planTo := func(target string) *move.Result {
		sess := move.NewSession(snap)
		sess.Start(move.Item{ID: "f1", Type: model.TypeFeature, Title: "Invoices", ParentID: "e1"})
		for _, p := range sess.Candidates() {
			if p.ID == target {
				sess.SelectParent(p)
			}
		}
		return sess.Execute()
	}
	first, second := planTo("e2"), planTo("e3")
	if first == nil || !first.Success || second == nil || !second.Success {
		t.Fatalf("expected two successful plans, got %+v and %+v", first, second)
	}

	if err := c.Apply(model.TypeFeature, first); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := c.Apply(model.TypeFeature, second); err == nil {
		t.Error("stale plan should be rejected once the item has moved")
	}
	if err := c.Check(); err != nil {
		t.Errorf("invariants broken by a rejected stale plan: %v", err)
	}
	if got := c.Snapshot().Features["f1"].ParentEpicID; got != "e2" {
		t.Errorf("feature parent = %q, want e2", got)
	}
}

func TestInsertMaintainsBothSides(t *testing.T) {
	c := New(seedStore())

	err := c.InsertFeature(&model.Feature{ID: "f2", ParentEpicID: "e2", Title: "Login"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := c.Check(); err != nil {
		t.Fatalf("invariants broken after insert: %v", err)
	}

	if err := c.InsertFeature(&model.Feature{ID: "f2", ParentEpicID: "e2"}); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if err := c.InsertFeature(&model.Feature{ID: "f9", ParentEpicID: "nope"}); err == nil {
		t.Error("missing parent should be rejected")
	}
	if err := c.InsertTask(&model.Task{ID: "t3", ParentUserStoryID: "s1", Title: "Retry email"}); err != nil {
		t.Errorf("task insert failed: %v", err)
	}

	snap := c.Snapshot()
	if len(snap.UserStories["s1"].TaskIDs) != 3 {
		t.Errorf("task not appended to parent array: %v", snap.UserStories["s1"].TaskIDs)
	}
}

func TestDeleteCascades(t *testing.T) {
	c := New(seedStore())

	if err := c.Delete("e1", model.TypeEpic); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := c.Check(); err != nil {
		t.Fatalf("invariants broken after cascade delete: %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Features)+len(snap.UserStories)+len(snap.Tasks) != 0 {
		t.Errorf("descendants survived the cascade: %d/%d/%d",
			len(snap.Features), len(snap.UserStories), len(snap.Tasks))
	}
	if _, ok := snap.Epics["e2"]; !ok {
		t.Error("sibling epic should survive")
	}

	if err := c.Delete("ghost", model.TypeTask); err == nil {
		t.Error("deleting a missing entity should fail")
	}
}

func TestDeleteLeafStripsParentArray(t *testing.T) {
	c := New(seedStore())

	if err := c.Delete("t1", model.TypeTask); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.UserStories["s1"].TaskIDs) != 1 || snap.UserStories["s1"].TaskIDs[0] != "t2" {
		t.Errorf("parent array not stripped: %v", snap.UserStories["s1"].TaskIDs)
	}
	if err := c.Check(); err != nil {
		t.Errorf("invariants broken: %v", err)
	}
}

func TestCheckDetectsOneSidedLinks(t *testing.T) {
	s := seedStore()
	s.Epics["e1"].FeatureIDs = []string{} // feature f1 still points at e1
	if err := New(s).Check(); err == nil {
		t.Error("one-sided parent link should fail the check")
	}

	s2 := seedStore()
	s2.UserStories["s1"].TaskIDs = []string{"t1", "t1", "t2"}
	if err := New(s2).Check(); err == nil {
		t.Error("duplicate child id should fail the check")
	}

	s3 := seedStore()
	s3.Features["f1"].ParentEpicID = "ghost"
	if err := New(s3).Check(); err == nil {
		t.Error("dangling parent reference should fail the check")
	}
}

// Random sequences of valid moves keep the invariants intact.
func TestPropMovesPreserveInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := model.NewStore()
		s.ID = "app"
		epicCount := rapid.IntRange(2, 4).Draw(rt, "epics")
		for i := 0; i < epicCount; i++ {
			id := fmt.Sprintf("e%d", i)
			s.Epics[id] = &model.Epic{ID: id, ParentAppID: "app", Title: id, FeatureIDs: []string{}}
		}
		featCount := rapid.IntRange(1, 6).Draw(rt, "features")
		for i := 0; i < featCount; i++ {
			id := fmt.Sprintf("f%d", i)
			parent := fmt.Sprintf("e%d", rapid.IntRange(0, epicCount-1).Draw(rt, "parent"))
			s.Features[id] = &model.Feature{ID: id, ParentEpicID: parent, Title: id, UserStoryIDs: []string{}}
			s.Epics[parent].FeatureIDs = append(s.Epics[parent].FeatureIDs, id)
		}
		c := New(s)

		moves := rapid.IntRange(1, 10).Draw(rt, "moves")
		for i := 0; i < moves; i++ {
			snap := c.Snapshot()
			itemID := fmt.Sprintf("f%d", rapid.IntRange(0, featCount-1).Draw(rt, "item"))
			item := move.Item{
				ID:       itemID,
				Type:     model.TypeFeature,
				ParentID: snap.Features[itemID].ParentEpicID,
			}
			targetID := fmt.Sprintf("e%d", rapid.IntRange(0, epicCount-1).Draw(rt, "target"))

			sess := move.NewSession(snap)
			sess.Start(item)
			for _, p := range sess.Candidates() {
				if p.ID == targetID {
					sess.SelectParent(p)
				}
			}
			plan := sess.Execute()
			if plan == nil {
				continue
			}
			if plan.Success {
				if err := c.Apply(model.TypeFeature, plan); err != nil {
					rt.Fatalf("apply of a valid plan failed: %v", err)
				}
			}
			if err := c.Check(); err != nil {
				rt.Fatalf("invariants broken after move %d: %v", i, err)
			}
		}
	})
}

func TestReplaceSwapsStoreAndKeepsOldSnapshots(t *testing.T) {
	c := New(seedStore())
	before := c.Snapshot()

	fresh := model.NewStore()
	fresh.ID = "app"
	fresh.Epics["e9"] = &model.Epic{ID: "e9", ParentAppID: "app", Title: "Payments", FeatureIDs: []string{}}
	c.Replace(fresh)

	after := c.Snapshot()
	if _, ok := after.Epics["e9"]; !ok {
		t.Error("snapshot after Replace missing new epic")
	}
	if _, ok := after.Epics["e1"]; ok {
		t.Error("snapshot after Replace still has old epic")
	}

	// The pre-replace snapshot is untouched.
	if _, ok := before.Epics["e1"]; !ok {
		t.Error("old snapshot lost its contents")
	}

	// A plan built against the stale snapshot must fail re-validation.
	sess := move.NewSession(before)
	sess.Start(move.Item{ID: "f1", Type: model.TypeFeature, Title: "Invoices", ParentID: "e1"})
	var target move.PotentialParent
	for _, p := range sess.Candidates() {
		if p.ID == "e2" {
			target = p
		}
	}
	sess.SelectParent(target)
	plan := sess.Execute()
	if plan == nil || !plan.Success {
		t.Fatalf("expected a successful plan against the stale snapshot, got %+v", plan)
	}
	if err := c.Apply(model.TypeFeature, plan); err == nil {
		t.Error("apply of a stale plan should fail after Replace")
	}
}

func TestReplaceNilYieldsEmptyStore(t *testing.T) {
	c := New(seedStore())
	c.Replace(nil)
	if got := c.Snapshot().Count(model.TypeEpic); got != 0 {
		t.Errorf("epic count after Replace(nil) = %d, want 0", got)
	}
}
