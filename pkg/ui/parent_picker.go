package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/specdeck/pkg/move"
)

// ParentPickerModel is the modal overlay for choosing a new parent
// during a move. It presents the move session's candidate list with the
// current parent first.
type ParentPickerModel struct {
	session       *move.Session
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewParentPicker creates a picker over an active move session.
func NewParentPicker(session *move.Session, theme Theme) ParentPickerModel {
	return ParentPickerModel{
		session: session,
		theme:   theme,
	}
}

// SetSize updates the picker dimensions.
func (m *ParentPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves the selection up.
func (m *ParentPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves the selection down.
func (m *ParentPickerModel) MoveDown() {
	if m.selectedIndex < len(m.session.Candidates())-1 {
		m.selectedIndex++
	}
}

// Choose confirms the highlighted candidate on the session. Reports
// whether a candidate was actually selected.
func (m *ParentPickerModel) Choose() bool {
	candidates := m.session.Candidates()
	if m.selectedIndex < 0 || m.selectedIndex >= len(candidates) {
		return false
	}
	m.session.SelectParent(candidates[m.selectedIndex])
	return true
}

// View renders the picker overlay centered in the viewport.
func (m *ParentPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme
	item := m.session.Item()
	candidates := m.session.Candidates()

	boxWidth := 48
	if m.width < 58 {
		boxWidth = m.width - 10
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render(fmt.Sprintf("Move %q", item.Title)))
	lines = append(lines, "")

	if len(candidates) == 0 {
		muted := t.Renderer.NewStyle().Foreground(t.Muted)
		lines = append(lines, muted.Render("No valid destinations."))
	}

	for i, candidate := range candidates {
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}

		label := candidate.Title
		if candidate.Path != "" {
			pathStyle := t.Renderer.NewStyle().Foreground(t.Muted)
			label += " " + pathStyle.Render("("+candidate.Path+")")
		}

		suffix := ""
		if candidate.IsCurrent {
			checkStyle := t.Renderer.NewStyle().Foreground(t.Secondary)
			suffix = " " + checkStyle.Render("✓ current")
		}

		lines = append(lines, itemStyle.Render(prefix+label)+suffix)
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: move | esc: cancel"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}
