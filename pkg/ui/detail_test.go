package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

func TestDetailMarkdownStory(t *testing.T) {
	s := testStore()
	s.UserStories["us1"].Role = "customer"
	s.UserStories["us1"].Action = "download my invoice"
	s.UserStories["us1"].Goal = "I can file expenses"
	s.UserStories["us1"].Points = 3
	s.UserStories["us1"].AcceptanceCriteria = []model.AcceptanceCriterion{{Text: "PDF is generated"}, {Text: " "}}

	md := DetailMarkdown(s, "us1", model.TypeUserStory)
	for _, want := range []string{
		"# Download invoice",
		"As a **customer**",
		"**Points**: 3",
		"- PDF is generated",
		"1 tasks",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("detail missing %q", want)
		}
	}
	if strings.Contains(md, "-  \n") {
		t.Error("blank criterion leaked into detail")
	}
}

func TestDetailMarkdownEpicRisks(t *testing.T) {
	s := testStore()
	s.Epics["e1"].RisksAndMitigation = []model.RiskMitigation{{Risk: "Fraud", Mitigation: "Review queue"}}
	s.Epics["e1"].ContextualQuestions = []model.ContextualQuestion{{Question: "Which currencies?", Answer: "EUR only"}}

	md := DetailMarkdown(s, "e1", model.TypeEpic)
	for _, want := range []string{"- **Fraud**: Review queue", "**Q**: Which currencies?", "**A**: EUR only"} {
		if !strings.Contains(md, want) {
			t.Errorf("detail missing %q", want)
		}
	}
}

func TestDetailMarkdownMissingEntity(t *testing.T) {
	md := DetailMarkdown(testStore(), "ghost", model.TypeTask)
	if !strings.Contains(md, "no longer exists") {
		t.Errorf("missing entity should render a notice, got %q", md)
	}
}

func TestDetailMarkdownDependencyTitles(t *testing.T) {
	s := testStore()
	s.UserStories["us2"] = &model.UserStory{ID: "us2", ParentFeatureID: "f1", Title: "Email invoice", DependentUserStoryIDs: []string{"us1", "ghost"}}

	md := DetailMarkdown(s, "us2", model.TypeUserStory)
	if !strings.Contains(md, "- Download invoice") {
		t.Error("resolvable dependency should render its title")
	}
	if !strings.Contains(md, "- ghost") {
		t.Error("unresolvable dependency should fall back to the raw id")
	}
}

func TestRenderBreadcrumbPath(t *testing.T) {
	theme := DefaultTheme(nil)
	bar := RenderBreadcrumb(theme, testStore(), "t1", model.TypeTask)
	for _, want := range []string{"Billing", "Invoices", "Download invoice", "Render PDF"} {
		if !strings.Contains(bar, want) {
			t.Errorf("breadcrumb missing %q", want)
		}
	}
}

func TestRenderBreadcrumbBrokenLink(t *testing.T) {
	s := testStore()
	s.Tasks["t1"].ParentUserStoryID = "ghost"

	bar := RenderBreadcrumb(DefaultTheme(nil), s, "t1", model.TypeTask)
	if !strings.Contains(bar, "Render PDF") {
		t.Error("queried node must always appear")
	}
	if !strings.Contains(bar, "broken") {
		t.Error("unresolved count should be surfaced")
	}
}
