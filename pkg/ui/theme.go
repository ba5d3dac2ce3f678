package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

// Theme holds the color palette and shared styles for the TUI.
// All styles are created through the Renderer so output degrades
// correctly on terminals without true color.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Panel    lipgloss.Style
	Focused  lipgloss.Style
}

// DefaultTheme returns the standard dark palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7b2fbf", Dark: "#bd93f9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#0b7285", Dark: "#8be9fd"},
		Highlight: lipgloss.AdaptiveColor{Light: "#2b8a3e", Dark: "#50fa7b"},
		Muted:     lipgloss.AdaptiveColor{Light: "#868e96", Dark: "#6272a4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#212529", Dark: "#f8f8f2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#e9ecef", Dark: "#44475a"}).
		Bold(true)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)
	t.Focused = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	return t
}

// TypeIcon returns the glyph and color for an entity level.
func (t Theme) TypeIcon(typ model.NodeType) (string, lipgloss.AdaptiveColor) {
	switch typ {
	case model.TypeEpic:
		return "◆", t.Primary
	case model.TypeFeature:
		return "◈", t.Secondary
	case model.TypeUserStory:
		return "●", t.Highlight
	case model.TypeTask:
		return "○", t.Muted
	default:
		return "•", t.Muted
	}
}
