package drift

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

func storeWithStories(deps map[string][]string) *model.Store {
	s := model.NewStore()
	s.Epics["e1"] = &model.Epic{ID: "e1", Title: "Billing", FeatureIDs: []string{"f1"}}
	s.Features["f1"] = &model.Feature{ID: "f1", ParentEpicID: "e1", Title: "Invoices"}
	for id, dep := range deps {
		s.Features["f1"].UserStoryIDs = append(s.Features["f1"].UserStoryIDs, id)
		s.UserStories[id] = &model.UserStory{
			ID: id, ParentFeatureID: "f1", Title: "Story " + id,
			DependentUserStoryIDs: dep,
		}
	}
	return s
}

func TestCaptureCountsAndStories(t *testing.T) {
	s := storeWithStories(map[string][]string{
		"us1": nil,
		"us2": {"us1"},
	})
	s.Tasks["t1"] = &model.Task{ID: "t1", ParentUserStoryID: "us1", Title: "Render"}
	s.UserStories["us1"].TaskIDs = []string{"t1"}

	b := Capture(s, "before refactor")
	if b.Description != "before refactor" {
		t.Errorf("description = %q", b.Description)
	}
	if b.Stats.Epics != 1 || b.Stats.Features != 1 || b.Stats.UserStories != 2 || b.Stats.Tasks != 1 {
		t.Errorf("stats = %+v", b.Stats)
	}
	if b.Stats.DependencyEdges != 1 {
		t.Errorf("edges = %d, want 1", b.Stats.DependencyEdges)
	}
	if len(b.StoryIDs) != 2 || b.StoryIDs[0] != "us1" || b.StoryIDs[1] != "us2" {
		t.Errorf("story ids = %v, want sorted [us1 us2]", b.StoryIDs)
	}
	if b.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := DefaultPath(dir)

	if Exists(path) {
		t.Fatal("baseline should not exist yet")
	}

	b := Capture(storeWithStories(map[string][]string{"us1": nil}), "v1")
	if err := b.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(path) {
		t.Fatal("baseline file missing after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Description != "v1" || loaded.Stats.UserStories != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestCalculateCleanWhenUnchanged(t *testing.T) {
	s := storeWithStories(map[string][]string{"us1": nil, "us2": {"us1"}})
	base := Capture(s, "")
	current := Capture(s, "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	if res.HasDrift {
		t.Errorf("expected no drift, got %+v", res)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestCalculateNewCycleIsCritical(t *testing.T) {
	base := Capture(storeWithStories(map[string][]string{
		"us1": nil,
		"us2": {"us1"},
	}), "")
	current := Capture(storeWithStories(map[string][]string{
		"us1": {"us2"},
		"us2": {"us1"},
	}), "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	if res.Critical != 1 {
		t.Fatalf("critical = %d, want 1 (alerts: %+v)", res.Critical, res.Alerts)
	}
	if res.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode)
	}

	found := false
	for _, a := range res.Alerts {
		if a.Type == AlertNewCycle && a.Severity == SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("no new_cycle alert in %+v", res.Alerts)
	}
}

func TestCalculateResolvedCycleIsInfo(t *testing.T) {
	base := Capture(storeWithStories(map[string][]string{
		"us1": {"us2"},
		"us2": {"us1"},
	}), "")
	current := Capture(storeWithStories(map[string][]string{
		"us1": nil,
		"us2": {"us1"},
	}), "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	if res.Critical != 0 {
		t.Errorf("critical = %d, want 0", res.Critical)
	}
	found := false
	for _, a := range res.Alerts {
		if a.Type == AlertResolvedCycle {
			found = true
		}
	}
	if !found {
		t.Errorf("no resolved_cycle alert in %+v", res.Alerts)
	}
}

func TestCalculateRemovedStoriesWarn(t *testing.T) {
	base := Capture(storeWithStories(map[string][]string{
		"us1": nil, "us2": nil, "us3": nil,
	}), "")
	current := Capture(storeWithStories(map[string][]string{
		"us1": nil,
	}), "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	if res.ExitCode != 2 {
		t.Errorf("exit code = %d, want 2 (warning)", res.ExitCode)
	}

	var msg string
	for _, a := range res.Alerts {
		if a.Type == AlertRemovedStory {
			msg = a.Message
		}
	}
	if !strings.Contains(msg, "us2") || !strings.Contains(msg, "us3") {
		t.Errorf("removed-story alert %q should name us2 and us3", msg)
	}
}

func TestCalculateStoryGrowthThreshold(t *testing.T) {
	small := map[string][]string{"us1": nil}
	big := map[string][]string{"us1": nil}
	for i := 0; i < 12; i++ {
		big["usx"+string(rune('a'+i))] = nil
	}

	base := Capture(storeWithStories(small), "")
	current := Capture(storeWithStories(big), "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	found := false
	for _, a := range res.Alerts {
		if a.Type == AlertStoryGrowth && a.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected story_growth warning, got %+v", res.Alerts)
	}

	// Below threshold: no growth alert.
	loose := Thresholds{StoryGrowth: 100, EdgeGrowthPct: 1000}
	res = NewCalculator(base, current, loose).Calculate()
	for _, a := range res.Alerts {
		if a.Type == AlertStoryGrowth {
			t.Errorf("unexpected story_growth alert with loose thresholds")
		}
	}
}

func TestCountChangesAreInfoOnly(t *testing.T) {
	base := Capture(storeWithStories(map[string][]string{"us1": nil}), "")
	s := storeWithStories(map[string][]string{"us1": nil})
	s.Tasks["t1"] = &model.Task{ID: "t1", ParentUserStoryID: "us1", Title: "New task"}
	s.UserStories["us1"].TaskIDs = []string{"t1"}
	current := Capture(s, "")

	res := NewCalculator(base, current, DefaultThresholds()).Calculate()
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0 for info-only drift", res.ExitCode)
	}
	if !res.HasDrift || res.Info == 0 {
		t.Errorf("expected info alert for task count change, got %+v", res)
	}
}

func TestLoadThresholdsDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()

	th, err := LoadThresholds(dir)
	if err != nil {
		t.Fatalf("LoadThresholds on empty dir: %v", err)
	}
	if th != DefaultThresholds() {
		t.Errorf("defaults = %+v", th)
	}

	cfgDir := filepath.Join(dir, ".specdeck")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	yaml := "story_growth_threshold: 3\n"
	if err := os.WriteFile(filepath.Join(cfgDir, ConfigFileName), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	th, err = LoadThresholds(dir)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if th.StoryGrowth != 3 {
		t.Errorf("StoryGrowth = %d, want 3", th.StoryGrowth)
	}
	if th.EdgeGrowthPct != DefaultThresholds().EdgeGrowthPct {
		t.Errorf("EdgeGrowthPct should keep default, got %v", th.EdgeGrowthPct)
	}
}

func TestResultFormat(t *testing.T) {
	clean := Result{}
	if !strings.Contains(clean.Format(), "No drift") {
		t.Errorf("clean format = %q", clean.Format())
	}

	r := Result{
		HasDrift: true, Critical: 1,
		Alerts: []Alert{{Type: AlertNewCycle, Severity: SeverityCritical, Message: "new dependency cycle: a ↔ b"}},
	}
	out := r.Format()
	if !strings.Contains(out, "new_cycle") || !strings.Contains(out, "1 critical") {
		t.Errorf("format = %q", out)
	}
}
