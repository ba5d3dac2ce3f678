package move

import (
	"testing"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

func buildStore() *model.Store {
	s := model.NewStore()
	s.ID = "app"
	s.Epics["e1"] = &model.Epic{ID: "e1", ParentAppID: "app", Title: "Billing", FeatureIDs: []string{"f1", "f2"}}
	s.Epics["e2"] = &model.Epic{ID: "e2", ParentAppID: "app", Title: "Auth", FeatureIDs: []string{"f3"}}
	s.Features["f1"] = &model.Feature{ID: "f1", ParentEpicID: "e1", Title: "Invoices", UserStoryIDs: []string{"s1"}}
	s.Features["f2"] = &model.Feature{ID: "f2", ParentEpicID: "e1", Title: "Receipts"}
	s.Features["f3"] = &model.Feature{ID: "f3", ParentEpicID: "e2", Title: "Login"}
	s.UserStories["s1"] = &model.UserStory{ID: "s1", ParentFeatureID: "f1", Title: "Download invoice", TaskIDs: []string{"t1"}}
	s.Tasks["t1"] = &model.Task{ID: "t1", ParentUserStoryID: "s1", Title: "Render PDF"}
	return s
}

func featureItem(s *model.Store) Item {
	return Item{ID: "f1", Type: model.TypeFeature, Title: "Invoices", ParentID: "e1"}
}

func TestCanMove(t *testing.T) {
	s := buildStore()

	if !CanMove(model.TypeFeature, s) {
		t.Error("two epics exist; features should be movable")
	}
	if !CanMove(model.TypeUserStory, s) {
		t.Error("three features exist; user stories should be movable")
	}
	if CanMove(model.TypeEpic, s) {
		t.Error("epics have no parent entity level to move between")
	}
	if CanMove(model.TypeTask, s) {
		t.Error("only one user story exists; tasks have nowhere to go")
	}
}

func TestPotentialParentsOrderAndPaths(t *testing.T) {
	s := buildStore()

	parents := PotentialParents(model.TypeFeature, "e1", s)
	if len(parents) != 2 {
		t.Fatalf("expected 2 epic candidates, got %d", len(parents))
	}
	// Current parent first even though "Auth" < "Billing" alphabetically.
	if parents[0].ID != "e1" || !parents[0].IsCurrent {
		t.Errorf("current parent should sort first: %+v", parents)
	}
	if parents[1].ID != "e2" || parents[1].IsCurrent {
		t.Errorf("remaining candidates mis-sorted: %+v", parents)
	}
	// Epic destinations carry no path.
	if parents[0].Path != "" {
		t.Errorf("epic destination should have empty path, got %q", parents[0].Path)
	}

	// Feature destinations (moving a user story) carry "Epic > Feature".
	storyParents := PotentialParents(model.TypeUserStory, "f1", s)
	if len(storyParents) != 3 {
		t.Fatalf("expected 3 feature candidates, got %d", len(storyParents))
	}
	if storyParents[0].ID != "f1" || storyParents[0].Path != "Billing > Invoices" {
		t.Errorf("feature path malformed: %+v", storyParents[0])
	}
	// Rest alphabetical: Login before Receipts.
	if storyParents[1].Title != "Login" || storyParents[2].Title != "Receipts" {
		t.Errorf("non-current candidates not alphabetical: %+v", storyParents)
	}

	// User-story destinations (moving a task) chain three titles.
	taskParents := PotentialParents(model.TypeTask, "s1", s)
	if taskParents[0].Path != "Billing > Invoices > Download invoice" {
		t.Errorf("story path malformed: %q", taskParents[0].Path)
	}
}

func TestValidateMove(t *testing.T) {
	s := buildStore()
	item := featureItem(s)

	if v := ValidateMove(item, "e1", s); v.Valid {
		t.Error("moving to the current parent must be invalid")
	}
	if v := ValidateMove(item, "nope", s); v.Valid || v.Error != "Target parent does not exist" {
		t.Errorf("nonexistent target should fail with a clear message, got %+v", v)
	}
	if v := ValidateMove(item, "e2", s); !v.Valid {
		t.Errorf("move to another existing epic should be valid, got %+v", v)
	}
	// Target at the wrong level does not count.
	if v := ValidateMove(item, "f2", s); v.Valid {
		t.Error("a feature cannot be parented to another feature")
	}
	epicItem := Item{ID: "e1", Type: model.TypeEpic, ParentID: "app"}
	if v := ValidateMove(epicItem, "e2", s); v.Valid {
		t.Error("epics are not movable")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)

	if sess.Phase() != PhaseIdle {
		t.Fatalf("new session should be idle, got %v", sess.Phase())
	}
	// Executing from idle produces nothing.
	if res := sess.Execute(); res != nil {
		t.Errorf("execute from idle should return nil, got %+v", res)
	}

	sess.Start(featureItem(s))
	if sess.Phase() != PhaseSelecting {
		t.Fatalf("expected selecting after start, got %v", sess.Phase())
	}
	if len(sess.Candidates()) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(sess.Candidates()))
	}

	// Execute with no destination chosen: nil, phase unchanged.
	if res := sess.Execute(); res != nil {
		t.Errorf("execute without a selection should return nil, got %+v", res)
	}
	if sess.Phase() != PhaseSelecting {
		t.Errorf("failed execute must not transition, got %v", sess.Phase())
	}

	sess.SelectParent(sess.Candidates()[1]) // e2
	if sess.Phase() != PhaseReady {
		t.Fatalf("expected ready after selection, got %v", sess.Phase())
	}

	res := sess.Execute()
	if res == nil || !res.Success {
		t.Fatalf("expected successful plan, got %+v", res)
	}
	if res.ItemID != "f1" || res.FromParentID != "e1" || res.ToParentID != "e2" {
		t.Errorf("plan fields wrong: %+v", res)
	}
	if sess.Phase() != PhaseIdle {
		t.Errorf("session should reset after execute, got %v", sess.Phase())
	}
}

func TestSessionSameParentFails(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)
	sess.Start(featureItem(s))
	sess.SelectParent(sess.Candidates()[0]) // current parent e1

	res := sess.Execute()
	if res == nil || res.Success {
		t.Fatalf("same-parent move should fail as a value, got %+v", res)
	}
	if res.Error != "Item is already under this parent" {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if res.ItemID != "f1" || res.FromParentID != "e1" || res.ToParentID != "e1" {
		t.Errorf("failed result still carries the plan fields: %+v", res)
	}
	if sess.Phase() != PhaseIdle {
		t.Errorf("session should reset after a failed execute, got %v", sess.Phase())
	}
}

func TestSessionCancel(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)
	sess.Start(featureItem(s))
	sess.Cancel()

	if sess.Phase() != PhaseIdle {
		t.Errorf("cancel should reset to idle, got %v", sess.Phase())
	}
	if res := sess.Execute(); res != nil {
		t.Errorf("execute after cancel should return nil, got %+v", res)
	}
}

func TestSessionStartClearsPriorSelection(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)
	sess.Start(featureItem(s))
	sess.SelectParent(sess.Candidates()[1])

	// Restarting with a new item drops the old choice.
	sess.Start(Item{ID: "s1", Type: model.TypeUserStory, Title: "Download invoice", ParentID: "f1"})
	if sess.Phase() != PhaseSelecting {
		t.Errorf("restart should land in selecting, got %v", sess.Phase())
	}
	if res := sess.Execute(); res != nil {
		t.Errorf("stale selection must not survive a restart, got %+v", res)
	}
}

func TestExecuteDetectsVanishedTarget(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)
	sess.Start(featureItem(s))
	sess.SelectParent(sess.Candidates()[1]) // e2

	// The backing store drops the destination between selection and commit.
	delete(s.Epics, "e2")

	res := sess.Execute()
	if res == nil || res.Success {
		t.Fatalf("vanished target should fail, got %+v", res)
	}
	if res.Error != "Item or target no longer exists" {
		t.Errorf("unexpected error: %q", res.Error)
	}
}

func TestExecuteDetectsVanishedItem(t *testing.T) {
	s := buildStore()
	sess := NewSession(s)
	sess.Start(featureItem(s))
	sess.SelectParent(sess.Candidates()[1])

	delete(s.Features, "f1")

	res := sess.Execute()
	if res == nil || res.Success || res.Error != "Item or target no longer exists" {
		t.Fatalf("vanished item should fail distinctly, got %+v", res)
	}
}
