package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

// CreateForm collects the fields for a new entity under a parent node.
// It wraps a huh form so the root model can embed it as a sub-model.
type CreateForm struct {
	form     *huh.Form
	typ      model.NodeType
	parentID string

	title       string
	description string
}

// NewCreateForm builds a form for creating an entity of the given type.
// parentID is empty when creating an epic.
func NewCreateForm(typ model.NodeType, parentID string) *CreateForm {
	f := &CreateForm{typ: typ, parentID: parentID}

	detailTitle := "Description"
	if typ == model.TypeTask {
		detailTitle = "Details"
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("New %s", typ.Label())).
				Placeholder("title").
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}).
				Value(&f.title),
			huh.NewText().
				Title(detailTitle).
				Lines(3).
				Value(&f.description),
		),
	)
	return f
}

// Init starts the form.
func (f *CreateForm) Init() tea.Cmd {
	return f.form.Init()
}

// Update forwards messages to the form.
func (f *CreateForm) Update(msg tea.Msg) (tea.Cmd, bool) {
	m, cmd := f.form.Update(msg)
	if fm, ok := m.(*huh.Form); ok {
		f.form = fm
	}
	return cmd, f.form.State == huh.StateCompleted
}

// View renders the form.
func (f *CreateForm) View() string {
	return f.form.View()
}

// Aborted reports whether the user cancelled the form.
func (f *CreateForm) Aborted() bool {
	return f.form.State == huh.StateAborted
}

// Type returns the entity level being created.
func (f *CreateForm) Type() model.NodeType {
	return f.typ
}

// ParentID returns the parent under which the entity is created.
func (f *CreateForm) ParentID() string {
	return f.parentID
}

// Title returns the entered title, trimmed.
func (f *CreateForm) Title() string {
	return strings.TrimSpace(f.title)
}

// Description returns the entered description or details text.
func (f *CreateForm) Description() string {
	return strings.TrimSpace(f.description)
}
