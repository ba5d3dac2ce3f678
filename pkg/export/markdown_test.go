package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

func sampleStore() *model.Store {
	s := model.NewStore()
	s.Epics["e1"] = &model.Epic{
		ID: "e1", Title: "Billing", Description: "Everything money.",
		RisksAndMitigation: []model.RiskMitigation{{Risk: "Fraud", Mitigation: "Review queue"}},
		FeatureIDs:         []string{"f1"},
	}
	s.Features["f1"] = &model.Feature{
		ID: "f1", ParentEpicID: "e1", Title: "Invoices", UserStoryIDs: []string{"us1", "us2"},
	}
	s.UserStories["us1"] = &model.UserStory{
		ID: "us1", ParentFeatureID: "f1", Title: "Download invoice",
		Role: "customer", Action: "download my invoice", Goal: "I can file expenses",
		Points:             3,
		AcceptanceCriteria: []model.AcceptanceCriterion{{Text: "PDF is generated"}, {Text: ""}},
		TaskIDs:            []string{"t1"},
	}
	s.UserStories["us2"] = &model.UserStory{
		ID: "us2", ParentFeatureID: "f1", Title: "Email invoice",
		DependentUserStoryIDs: []string{"us1"},
	}
	s.Tasks["t1"] = &model.Task{ID: "t1", ParentUserStoryID: "us1", Title: "Render PDF", Priority: "high"}
	return s
}

func TestGenerateMarkdownSections(t *testing.T) {
	md, err := GenerateMarkdown(sampleStore(), "Shop Spec")
	if err != nil {
		t.Fatalf("GenerateMarkdown: %v", err)
	}

	for _, want := range []string{
		"# Shop Spec",
		"- **Epics**: 1",
		"- **User Stories**: 2",
		"## Billing",
		"### Invoices",
		"#### Download invoice",
		"As a customer, I want to download my invoice, so that I can file expenses.",
		"**Points**: 3",
		"- PDF is generated",
		"- Render PDF (high)",
		"- **Fraud**: Review queue",
		"```mermaid",
		"us1 --> us2",
		"## Development Order",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// The blank acceptance criterion placeholder must not render a bullet.
	if strings.Contains(md, "- \n") {
		t.Error("empty criteria line leaked into report")
	}
}

func TestGenerateMarkdownSkipsDanglingChildren(t *testing.T) {
	s := sampleStore()
	s.Epics["e1"].FeatureIDs = append(s.Epics["e1"].FeatureIDs, "ghost")

	md, err := GenerateMarkdown(s, "Shop Spec")
	if err != nil {
		t.Fatalf("GenerateMarkdown: %v", err)
	}
	if strings.Contains(md, "ghost") {
		t.Error("dangling feature id should be skipped")
	}
}

func TestGenerateMarkdownEmptyStore(t *testing.T) {
	md, err := GenerateMarkdown(model.NewStore(), "Empty")
	if err != nil {
		t.Fatalf("GenerateMarkdown: %v", err)
	}
	if !strings.Contains(md, "NoStories[No User Stories]") {
		t.Error("empty store should render the placeholder graph node")
	}
}

func TestMermaidSafe(t *testing.T) {
	if got := mermaidSafe(`Pay "now" (fast)`); got != "Pay 'now' fast" {
		t.Errorf("escaping wrong: %q", got)
	}
	long := strings.Repeat("ü", 40)
	got := mermaidSafe(long)
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
}

func TestSaveMarkdownToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := SaveMarkdownToFile(sampleStore(), "Shop Spec", path); err != nil {
		t.Fatalf("SaveMarkdownToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(data, []byte("# Shop Spec")) {
		t.Error("written report missing title")
	}
}
