package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/specdeck/pkg/breadcrumb"
	"github.com/vanderheijden86/specdeck/pkg/model"
)

// RenderBreadcrumb renders the ancestry bar for the selected entity.
// Unresolvable ancestors are omitted; a count of skipped links is shown
// so a broken tree is visible rather than silently shortened.
func RenderBreadcrumb(theme Theme, s *model.Store, id string, typ model.NodeType) string {
	title, _ := s.Title(id, typ)
	path, unresolved := breadcrumb.BuildPath(breadcrumb.Ref{ID: id, Type: typ, Title: title}, s)
	if len(path) == 0 {
		return ""
	}

	r := theme.Renderer
	sep := r.NewStyle().Foreground(theme.Muted).Render(" › ")
	current := r.NewStyle().Foreground(theme.Primary).Bold(true)
	ancestor := r.NewStyle().Foreground(theme.Muted)

	parts := make([]string, 0, len(path)+1)
	for _, entry := range path {
		label := entry.Title
		if label == "" {
			label = entry.ID
		}
		if entry.IsCurrent {
			parts = append(parts, current.Render(label))
		} else {
			parts = append(parts, ancestor.Render(label))
		}
	}
	bar := strings.Join(parts, sep)
	if unresolved > 0 {
		bar += " " + r.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("(%d broken)", unresolved))
	}
	return bar
}

// DetailMarkdown builds the markdown document for one entity, rendered
// through glamour by the caller.
func DetailMarkdown(s *model.Store, id string, typ model.NodeType) string {
	var sb strings.Builder

	switch typ {
	case model.TypeEpic:
		epic, ok := s.Epics[id]
		if !ok {
			return missingEntity(id)
		}
		fmt.Fprintf(&sb, "# %s\n\n", epic.Title)
		writeIfSet(&sb, "", epic.Description)
		writeIfSet(&sb, "Goal", epic.Goal)
		writeIfSet(&sb, "Success Criteria", epic.SuccessCriteria)
		writeIfSet(&sb, "Timeline", epic.Timeline)
		writeIfSet(&sb, "Resources", epic.Resources)
		if len(epic.RisksAndMitigation) > 0 {
			sb.WriteString("### Risks\n\n")
			for _, r := range epic.RisksAndMitigation {
				fmt.Fprintf(&sb, "- **%s**: %s\n", r.Risk, r.Mitigation)
			}
			sb.WriteString("\n")
		}
		writeIfSet(&sb, "Notes", epic.Notes)
		writeQuestions(&sb, epic.ContextualQuestions)
		fmt.Fprintf(&sb, "---\n\n%d features\n", len(epic.FeatureIDs))

	case model.TypeFeature:
		feature, ok := s.Features[id]
		if !ok {
			return missingEntity(id)
		}
		fmt.Fprintf(&sb, "# %s\n\n", feature.Title)
		writeIfSet(&sb, "", feature.Description)
		writeIfSet(&sb, "Details", feature.Details)
		writeIfSet(&sb, "Priority", feature.Priority)
		writeIfSet(&sb, "Effort", feature.Effort)
		writeCriteria(&sb, feature.AcceptanceCriteria)
		writeIfSet(&sb, "Notes", feature.Notes)
		writeQuestions(&sb, feature.ContextualQuestions)
		fmt.Fprintf(&sb, "---\n\n%d user stories\n", len(feature.UserStoryIDs))

	case model.TypeUserStory:
		story, ok := s.UserStories[id]
		if !ok {
			return missingEntity(id)
		}
		fmt.Fprintf(&sb, "# %s\n\n", story.Title)
		if story.Role != "" || story.Action != "" || story.Goal != "" {
			fmt.Fprintf(&sb, "As a **%s**, I want to **%s**, so that **%s**.\n\n",
				story.Role, story.Action, story.Goal)
		}
		if story.Points > 0 {
			fmt.Fprintf(&sb, "**Points**: %d\n\n", story.Points)
		}
		writeCriteria(&sb, story.AcceptanceCriteria)
		if len(story.DependentUserStoryIDs) > 0 {
			sb.WriteString("### Depends On\n\n")
			for _, dep := range story.DependentUserStoryIDs {
				title, ok := s.Title(dep, model.TypeUserStory)
				if !ok {
					title = dep
				}
				fmt.Fprintf(&sb, "- %s\n", title)
			}
			sb.WriteString("\n")
		}
		writeIfSet(&sb, "Notes", story.Notes)
		writeQuestions(&sb, story.ContextualQuestions)
		fmt.Fprintf(&sb, "---\n\n%d tasks\n", len(story.TaskIDs))

	case model.TypeTask:
		task, ok := s.Tasks[id]
		if !ok {
			return missingEntity(id)
		}
		fmt.Fprintf(&sb, "# %s\n\n", task.Title)
		writeIfSet(&sb, "Details", task.Details)
		writeIfSet(&sb, "Priority", task.Priority)
		writeIfSet(&sb, "Notes", task.Notes)
		writeQuestions(&sb, task.ContextualQuestions)

	default:
		return missingEntity(id)
	}

	return sb.String()
}

func missingEntity(id string) string {
	return fmt.Sprintf("# Not found\n\nEntity `%s` no longer exists.\n", id)
}

func writeIfSet(sb *strings.Builder, heading, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if heading != "" {
		fmt.Fprintf(sb, "### %s\n\n", heading)
	}
	sb.WriteString(text + "\n\n")
}

func writeCriteria(sb *strings.Builder, criteria []model.AcceptanceCriterion) {
	var lines []string
	for _, c := range criteria {
		if strings.TrimSpace(c.Text) != "" {
			lines = append(lines, c.Text)
		}
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("### Acceptance Criteria\n\n")
	for _, line := range lines {
		sb.WriteString("- " + line + "\n")
	}
	sb.WriteString("\n")
}

func writeQuestions(sb *strings.Builder, questions []model.ContextualQuestion) {
	var answered []model.ContextualQuestion
	for _, q := range questions {
		if strings.TrimSpace(q.Question) != "" {
			answered = append(answered, q)
		}
	}
	if len(answered) == 0 {
		return
	}
	sb.WriteString("### Questions\n\n")
	for _, q := range answered {
		fmt.Fprintf(sb, "> **Q**: %s\n", q.Question)
		if q.Answer != "" {
			fmt.Fprintf(sb, "> **A**: %s\n", q.Answer)
		}
		sb.WriteString(">\n")
	}
	sb.WriteString("\n")
}
