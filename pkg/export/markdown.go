// Package export renders a specification tree to shareable formats:
// a markdown report, an SVG diagram, and a PNG snapshot.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/specdeck/pkg/analysis"
	"github.com/vanderheijden86/specdeck/pkg/model"
)

// GenerateMarkdown creates a full markdown report of the tree: summary
// counts, a table of contents, a mermaid dependency graph over user
// stories, and one section per epic with its nested levels.
func GenerateMarkdown(s *model.Store, title string) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Epics**: %d\n", len(s.Epics)))
	sb.WriteString(fmt.Sprintf("- **Features**: %d\n", len(s.Features)))
	sb.WriteString(fmt.Sprintf("- **User Stories**: %d\n", len(s.UserStories)))
	sb.WriteString(fmt.Sprintf("- **Tasks**: %d\n\n", len(s.Tasks)))

	epicIDs := s.EpicIDs()

	sb.WriteString("## Table of Contents\n\n")
	for _, id := range epicIDs {
		epic := s.Epics[id]
		link := fmt.Sprintf("#%s", strings.ToLower(id)) // anchor naming varies by renderer
		sb.WriteString("- [" + epic.Title + "](" + link + ")\n")
	}
	sb.WriteString("\n---\n\n")

	writeDependencyGraph(&sb, s)

	plan := analysis.StoryPlan(s)
	writePlanSection(&sb, plan)

	for _, id := range epicIDs {
		writeEpicSection(&sb, s, s.Epics[id])
	}

	return sb.String(), nil
}

func writeDependencyGraph(sb *strings.Builder, s *model.Store) {
	sb.WriteString("## Story Dependencies\n\n")
	sb.WriteString("```mermaid\ngraph TD\n")
	hasLinks := false
	for _, item := range analysis.StoryPlan(s).Items {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", item.ID, mermaidSafe(item.Title)))
		for _, dep := range item.DependsOn {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", dep, item.ID))
			hasLinks = true
		}
	}
	if len(s.UserStories) == 0 {
		sb.WriteString("    NoStories[No User Stories]\n")
	} else if !hasLinks {
		sb.WriteString("    %% no dependency edges\n")
	}
	sb.WriteString("```\n\n---\n\n")
}

func writePlanSection(sb *strings.Builder, plan analysis.Plan) {
	if len(plan.Items) == 0 {
		return
	}
	sb.WriteString("## Development Order\n\n")
	if len(plan.Cycles) > 0 {
		sb.WriteString("> **Warning**: dependency cycles detected; the order below is best-effort.\n")
		for _, cycle := range plan.Cycles {
			sb.WriteString("> - " + strings.Join(cycle, " ↔ ") + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("| # | Story | Depends On |\n")
	sb.WriteString("|---|---|---|\n")
	for _, item := range plan.Items {
		deps := "—"
		if len(item.DependsOn) > 0 {
			deps = strings.Join(item.DependsOn, ", ")
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", item.DevelopmentOrder, item.Title, deps))
	}
	sb.WriteString("\n---\n\n")
}

func writeEpicSection(sb *strings.Builder, s *model.Store, epic *model.Epic) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", epic.Title))
	if epic.Description != "" {
		sb.WriteString(epic.Description + "\n\n")
	}
	if len(epic.RisksAndMitigation) > 0 {
		sb.WriteString("### Risks\n\n")
		for _, r := range epic.RisksAndMitigation {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", r.Risk, r.Mitigation))
		}
		sb.WriteString("\n")
	}

	for _, fid := range epic.FeatureIDs {
		feature, ok := s.Features[fid]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", feature.Title))
		if feature.Description != "" {
			sb.WriteString(feature.Description + "\n\n")
		}
		for _, sid := range feature.UserStoryIDs {
			story, ok := s.UserStories[sid]
			if !ok {
				continue
			}
			writeStory(sb, s, story)
		}
	}
	sb.WriteString("---\n\n")
}

func writeStory(sb *strings.Builder, s *model.Store, story *model.UserStory) {
	sb.WriteString(fmt.Sprintf("#### %s\n\n", story.Title))
	if story.Role != "" || story.Action != "" || story.Goal != "" {
		sb.WriteString(fmt.Sprintf("As a %s, I want to %s, so that %s.\n\n",
			story.Role, story.Action, story.Goal))
	}
	if story.Points > 0 {
		sb.WriteString(fmt.Sprintf("**Points**: %d\n\n", story.Points))
	}
	criteria := nonEmptyCriteria(story.AcceptanceCriteria)
	if len(criteria) > 0 {
		sb.WriteString("**Acceptance Criteria**\n\n")
		for _, c := range criteria {
			sb.WriteString("- " + c + "\n")
		}
		sb.WriteString("\n")
	}
	if len(story.TaskIDs) > 0 {
		sb.WriteString("**Tasks**\n\n")
		for _, tid := range story.TaskIDs {
			task, ok := s.Tasks[tid]
			if !ok {
				continue
			}
			sb.WriteString("- " + task.Title)
			if task.Priority != "" {
				sb.WriteString(" (" + task.Priority + ")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

func nonEmptyCriteria(criteria []model.AcceptanceCriterion) []string {
	var out []string
	for _, c := range criteria {
		if strings.TrimSpace(c.Text) != "" {
			out = append(out, c.Text)
		}
	}
	return out
}

func mermaidSafe(title string) string {
	safe := strings.ReplaceAll(title, "\"", "'")
	safe = strings.ReplaceAll(safe, "(", "")
	safe = strings.ReplaceAll(safe, ")", "")
	return runewidth.Truncate(safe, 30, "...")
}

// SaveMarkdownToFile writes the generated report to a file.
func SaveMarkdownToFile(s *model.Store, title, filename string) error {
	content, err := GenerateMarkdown(s, title)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
