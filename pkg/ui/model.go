package ui

import (
	"fmt"
	"log"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/specdeck/pkg/history"
	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/move"
	"github.com/vanderheijden86/specdeck/pkg/store"
)

// SplitViewThreshold is the terminal width above which the tree and
// detail pane render side by side.
const SplitViewThreshold = 100

type focus int

const (
	focusTree focus = iota
	focusDetail
)

// SpecReloadedMsg is sent when the spec file changed on disk and a fresh
// store was loaded.
type SpecReloadedMsg struct {
	Store *model.Store
}

// Options configures the root model.
type Options struct {
	ProjectDir string
	Title      string
	// Saver persists the store after each mutation. May be nil for a
	// read-only session.
	Saver func(*model.Store) error
	// History records applied moves. May be nil.
	History *history.Log
}

// Model is the root bubbletea model: tree view, detail pane, and the
// move/create overlays.
type Model struct {
	container *store.Container
	snapshot  *model.Store
	tree      TreeModel
	viewport  viewport.Model
	renderer  *glamour.TermRenderer
	theme     Theme
	opts      Options

	session    *move.Session
	picker     ParentPickerModel
	showPicker bool

	form     *CreateForm
	showForm bool

	pendingDelete string

	focused     focus
	isSplitView bool
	showDetails bool
	ready       bool
	width       int
	height      int
	statusMsg   string
}

// NewModel builds the root model over a store container.
func NewModel(container *store.Container, opts Options) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Title == "" {
		opts.Title = "specdeck"
	}

	tree := NewTreeModel(theme)
	tree.SetProjectDir(opts.ProjectDir)

	snapshot := container.Snapshot()
	tree.Build(snapshot)

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		container: container,
		snapshot:  snapshot,
		tree:      tree,
		renderer:  r,
		theme:     theme,
		opts:      opts,
		focused:   focusTree,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case SpecReloadedMsg:
		m.container.Replace(msg.Store)
		m.refresh()
		m.statusMsg = "spec reloaded"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.isSplitView = msg.Width > SplitViewThreshold
		m.ready = true
		m.layout()
		m.updateViewportContent()
		return m, nil

	case tea.KeyMsg:
		if m.showForm {
			return m.updateForm(msg)
		}
		if m.showPicker {
			return m.updatePicker(msg)
		}
		return m.updateMain(msg)
	}

	if m.focused == focusDetail {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) layout() {
	headerHeight := 2 // breadcrumb + spacer
	footerHeight := 1
	avail := m.height - headerHeight - footerHeight

	if m.isSplitView {
		treeWidth := int(float64(m.width) * 0.4)
		detailWidth := m.width - treeWidth - 4
		m.tree.SetSize(treeWidth, avail-2)
		m.viewport = viewport.New(detailWidth, avail-2)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(detailWidth),
		)
	} else {
		m.tree.SetSize(m.width, avail-2)
		m.viewport = viewport.New(m.width, avail-2)
	}
	m.picker.SetSize(m.width, m.height)
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key != "x" {
		m.pendingDelete = ""
	}

	switch key {
	case "ctrl+c", "q":
		if m.showDetails && !m.isSplitView {
			m.showDetails = false
			return m, nil
		}
		return m, tea.Quit
	case "esc":
		if m.showDetails && !m.isSplitView {
			m.showDetails = false
		}
		return m, nil
	case "tab":
		if m.isSplitView {
			if m.focused == focusTree {
				m.focused = focusDetail
			} else {
				m.focused = focusTree
			}
		}
		return m, nil
	}

	if m.focused == focusDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch key {
	case "j", "down":
		m.tree.MoveDown()
	case "k", "up":
		m.tree.MoveUp()
	case "l", "right":
		m.tree.ExpandOrMoveToChild()
	case "h", "left":
		m.tree.CollapseOrJumpToParent()
	case "ctrl+d":
		m.tree.PageDown()
	case "ctrl+u":
		m.tree.PageUp()
	case "g":
		m.tree.JumpToTop()
	case "G":
		m.tree.JumpToBottom()
	case "p":
		m.tree.JumpToParent()
	case "z", " ":
		m.tree.ToggleExpand()
	case "E":
		m.tree.ExpandAll()
	case "C":
		m.tree.CollapseAll()
	case "enter":
		if !m.isSplitView {
			m.showDetails = true
		}
	case "y":
		if id := m.tree.SelectedID(); id != "" {
			if err := clipboard.WriteAll(id); err != nil {
				m.statusMsg = "clipboard unavailable"
			} else {
				m.statusMsg = fmt.Sprintf("copied %s", id)
			}
		}
		return m, nil
	case "m":
		m.startMove()
		return m, nil
	case "u":
		m.undoLast()
		return m, nil
	case "n":
		return m.startCreateChild()
	case "N":
		return m.startCreate(model.TypeEpic, "")
	case "x":
		m.deleteSelected()
		return m, nil
	}

	m.updateViewportContent()
	return m, nil
}

// startMove opens the parent picker for the selected row.
func (m *Model) startMove() {
	row := m.tree.SelectedRow()
	if row == nil {
		return
	}
	if !move.CanMove(row.Type, m.snapshot) {
		m.statusMsg = "no other destination for this item"
		return
	}

	m.session = move.NewSession(m.container.Snapshot())
	title, _ := m.snapshot.Title(row.ID, row.Type)
	m.session.Start(move.Item{
		ID:       row.ID,
		Type:     row.Type,
		Title:    title,
		ParentID: row.ParentID,
	})
	m.picker = NewParentPicker(m.session, m.theme)
	m.picker.SetSize(m.width, m.height)
	m.showPicker = true
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.session.Cancel()
		m.showPicker = false
	case "j", "down":
		m.picker.MoveDown()
	case "k", "up":
		m.picker.MoveUp()
	case "enter":
		if !m.picker.Choose() {
			return m, nil
		}
		item := m.session.Item()
		plan := m.session.Execute()
		m.showPicker = false
		if plan == nil {
			return m, nil
		}
		if !plan.Success {
			m.statusMsg = plan.Error
			return m, nil
		}
		if err := m.container.Apply(item.Type, plan); err != nil {
			m.statusMsg = fmt.Sprintf("move failed: %v", err)
			return m, nil
		}
		if m.opts.History != nil {
			if _, err := m.opts.History.Record(item.Type, item.Title, plan); err != nil {
				log.Printf("warning: failed to record move: %v", err)
			}
		}
		m.persist()
		m.refresh()
		m.statusMsg = fmt.Sprintf("moved %s", item.Title)
	}
	return m, nil
}

// undoLast reverses the most recent recorded move. The reverse plan goes
// through the same Apply re-validation as a forward move, so an entry the
// item has outgrown (moved again, deleted, parent gone) fails cleanly.
func (m *Model) undoLast() {
	if m.opts.History == nil {
		m.statusMsg = "history disabled"
		return
	}
	entry, err := m.opts.History.Last()
	if err != nil {
		m.statusMsg = fmt.Sprintf("undo failed: %v", err)
		return
	}
	if entry == nil {
		m.statusMsg = "nothing to undo"
		return
	}

	typ := model.NodeType(entry.ItemType)
	plan := entry.UndoPlan()
	if err := m.container.Apply(typ, plan); err != nil {
		m.statusMsg = fmt.Sprintf("undo failed: %v", err)
		return
	}
	if _, err := m.opts.History.Record(typ, entry.ItemTitle, plan); err != nil {
		log.Printf("warning: failed to record undo: %v", err)
	}
	m.persist()
	m.refresh()
	m.statusMsg = fmt.Sprintf("moved %s back", entry.ItemTitle)
}

// startCreateChild opens the creation form for a child of the selection.
func (m Model) startCreateChild() (tea.Model, tea.Cmd) {
	row := m.tree.SelectedRow()
	if row == nil {
		return m.startCreate(model.TypeEpic, "")
	}
	childType, ok := row.Type.ChildType()
	if !ok {
		m.statusMsg = "tasks cannot have children"
		return m, nil
	}
	return m.startCreate(childType, row.ID)
}

func (m Model) startCreate(typ model.NodeType, parentID string) (tea.Model, tea.Cmd) {
	m.form = NewCreateForm(typ, parentID)
	m.showForm = true
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.showForm = false
		m.form = nil
		return m, nil
	}

	cmd, done := m.form.Update(msg)
	if !done {
		return m, cmd
	}

	m.showForm = false
	if m.form.Aborted() || m.form.Title() == "" {
		m.form = nil
		return m, nil
	}

	if err := m.insertFromForm(m.form); err != nil {
		m.statusMsg = fmt.Sprintf("create failed: %v", err)
	} else {
		m.persist()
		m.refresh()
		m.statusMsg = fmt.Sprintf("created %s", m.form.Title())
	}
	m.form = nil
	return m, nil
}

func (m *Model) insertFromForm(f *CreateForm) error {
	id := model.NewID(f.Type())
	switch f.Type() {
	case model.TypeEpic:
		return m.container.InsertEpic(&model.Epic{
			ID: id, Title: f.Title(), Description: f.Description(),
		})
	case model.TypeFeature:
		return m.container.InsertFeature(&model.Feature{
			ID: id, ParentEpicID: f.ParentID(), Title: f.Title(), Description: f.Description(),
		})
	case model.TypeUserStory:
		return m.container.InsertUserStory(&model.UserStory{
			ID: id, ParentFeatureID: f.ParentID(), Title: f.Title(), Notes: f.Description(),
		})
	case model.TypeTask:
		return m.container.InsertTask(&model.Task{
			ID: id, ParentUserStoryID: f.ParentID(), Title: f.Title(), Details: f.Description(),
		})
	}
	return fmt.Errorf("unknown entity type %q", f.Type())
}

// deleteSelected removes the selected subtree. The first press arms the
// delete; a second press on the same row confirms it.
func (m *Model) deleteSelected() {
	row := m.tree.SelectedRow()
	if row == nil {
		return
	}
	if m.pendingDelete != row.ID {
		m.pendingDelete = row.ID
		m.statusMsg = fmt.Sprintf("press x again to delete %q and its children", row.Label)
		return
	}
	m.pendingDelete = ""
	if err := m.container.Delete(row.ID, row.Type); err != nil {
		m.statusMsg = fmt.Sprintf("delete failed: %v", err)
		return
	}
	m.persist()
	m.refresh()
	m.statusMsg = fmt.Sprintf("deleted %s", row.Label)
}

// persist writes the current store through the configured saver.
func (m *Model) persist() {
	if m.opts.Saver == nil {
		return
	}
	if err := m.opts.Saver(m.container.Snapshot()); err != nil {
		log.Printf("warning: failed to save spec: %v", err)
		m.statusMsg = "save failed (see log)"
	}
}

// refresh re-snapshots the container and rebuilds the tree.
func (m *Model) refresh() {
	m.snapshot = m.container.Snapshot()
	m.tree.Build(m.snapshot)
	m.updateViewportContent()
}

func (m *Model) updateViewportContent() {
	row := m.tree.SelectedRow()
	if row == nil {
		m.viewport.SetContent("Nothing selected")
		return
	}
	md := DetailMarkdown(m.snapshot, row.ID, row.Type)
	rendered, err := m.renderer.Render(md)
	if err != nil {
		m.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	m.viewport.SetContent(rendered)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.showForm {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
	}
	if m.showPicker {
		return m.picker.View()
	}

	header := m.renderHeader()

	var body string
	if m.isSplitView {
		treeStyle, detailStyle := m.theme.Panel, m.theme.Panel
		if m.focused == focusTree {
			treeStyle = m.theme.Focused
		} else {
			detailStyle = m.theme.Focused
		}
		bodyHeight := m.height - 3
		treeView := treeStyle.Height(bodyHeight - 2).Render(m.tree.View())
		detailView := detailStyle.Width(m.viewport.Width).Height(bodyHeight - 2).Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, detailView)
	} else if m.showDetails {
		body = m.viewport.View()
	} else {
		body = m.tree.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	row := m.tree.SelectedRow()
	if row == nil {
		return m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(m.opts.Title) + "\n"
	}
	crumb := RenderBreadcrumb(m.theme, m.snapshot, row.ID, row.Type)
	return crumb + "\n"
}

func (m *Model) renderFooter() string {
	r := m.theme.Renderer
	helpStyle := r.NewStyle().Foreground(m.theme.Muted)
	posStyle := r.NewStyle().Foreground(m.theme.Secondary).Padding(0, 1)
	msgStyle := r.NewStyle().Foreground(m.theme.Highlight).Padding(0, 1)

	keys := "j/k: nav • h/l: fold • m: move • u: undo • n: new • y: copy id • q: quit"
	if m.showDetails && !m.isSplitView {
		keys = "esc: back • j/k: scroll • q: quit"
	}

	left := msgStyle.Render(m.statusMsg)
	right := posStyle.Render(m.tree.ScrollInfo()) + helpStyle.Render(keys+" ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := r.NewStyle().Width(gap).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, filler, right)
}

// Snapshot exposes the current display snapshot, used by tests.
func (m Model) Snapshot() *model.Store {
	return m.snapshot
}

// Tree exposes the tree sub-model, used by tests.
func (m *Model) Tree() *TreeModel {
	return &m.tree
}
