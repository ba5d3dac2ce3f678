// tree.go - Hierarchical tree view over the epic/feature/story/task levels.
package ui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/vtree"
)

// TreeState is the persistent expand/collapse state of the tree view.
// It is saved to .specdeck/tree-state.json so the layout survives
// restarts.
//
// Only explicit user changes are stored; nodes absent from the map use
// the default (expanded for depth < 2, collapsed otherwise). A missing
// or corrupted file silently falls back to defaults.
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence.
const TreeStateVersion = 1

// treeStateFileName is the filename for persisted tree state.
const treeStateFileName = "tree-state.json"

// TreeStatePath returns the tree state file path for a project directory.
func TreeStatePath(projectDir string) string {
	return filepath.Join(projectDir, config.ProjectDirName, treeStateFileName)
}

// defaultExpandDepth controls which levels start expanded: epics and
// features are open, stories and tasks start collapsed.
const defaultExpandDepth = 2

// TreeModel manages the hierarchical tree view state.
type TreeModel struct {
	nodes    []*vtree.Node
	rows     []vtree.FlatRow
	expanded map[string]bool
	depths   map[string]int
	branches map[string]bool // ids of nodes that have children
	cursor   int
	offset   int
	theme    Theme
	width    int
	height   int

	built      bool
	projectDir string
}

// NewTreeModel creates an empty tree model.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{
		theme:    theme,
		expanded: make(map[string]bool),
		depths:   make(map[string]int),
		branches: make(map[string]bool),
	}
}

// SetProjectDir sets the directory used for state persistence. Call
// before Build if a custom project directory is in use.
func (t *TreeModel) SetProjectDir(dir string) {
	t.projectDir = dir
}

// SetSize updates the available dimensions for the tree view.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Build constructs the tree from the store, applying default expansion
// and then any persisted state. The cursor is preserved by id when the
// previously selected node still exists.
func (t *TreeModel) Build(s *model.Store) {
	keepID := t.SelectedID()

	t.nodes = vtree.BuildNodes(s)
	t.expanded = make(map[string]bool)
	t.depths = make(map[string]int)
	t.branches = make(map[string]bool)

	var walk func(ns []*vtree.Node, depth int)
	walk = func(ns []*vtree.Node, depth int) {
		for _, n := range ns {
			t.depths[n.ID] = depth
			if len(n.Children) > 0 {
				t.branches[n.ID] = true
				if depth < defaultExpandDepth {
					t.expanded[n.ID] = true
				}
			}
			walk(n.Children, depth+1)
		}
	}
	walk(t.nodes, 0)

	t.loadState()
	t.rebuildRows()
	t.built = true

	if keepID == "" || !t.SelectByID(keepID) {
		t.cursor = 0
		t.offset = 0
	}
}

// rebuildRows re-flattens the tree after an expansion change.
func (t *TreeModel) rebuildRows() {
	t.rows = vtree.Flatten(t.nodes, t.expanded)
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// saveState persists explicit deviations from the default expansion.
// Errors are logged but never interrupt the user.
func (t *TreeModel) saveState() {
	state := &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}
	for id, depth := range t.depths {
		defaultExpanded := depth < defaultExpandDepth && t.hasChildren(id)
		if t.expanded[id] != defaultExpanded {
			state.Expanded[id] = t.expanded[id]
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}

	path := TreeStatePath(t.projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("warning: failed to create state directory: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
	}
}

// loadState restores persisted expansion state. Stale ids are ignored.
func (t *TreeModel) loadState() {
	data, err := os.ReadFile(TreeStatePath(t.projectDir))
	if err != nil {
		return
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return
	}

	for id, expanded := range state.Expanded {
		if _, ok := t.depths[id]; !ok {
			continue
		}
		if expanded && !t.hasChildren(id) {
			continue
		}
		if expanded {
			t.expanded[id] = true
		} else {
			delete(t.expanded, id)
		}
	}
}

func (t *TreeModel) hasChildren(id string) bool {
	return t.branches[id]
}

// SelectedRow returns the row under the cursor, or nil.
func (t *TreeModel) SelectedRow() *vtree.FlatRow {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return &t.rows[t.cursor]
	}
	return nil
}

// SelectedID returns the id of the selected row, or empty.
func (t *TreeModel) SelectedID() string {
	if row := t.SelectedRow(); row != nil {
		return row.ID
	}
	return ""
}

// SelectByID moves the cursor to the row with the given id. Reports
// whether the id was found among the visible rows.
func (t *TreeModel) SelectByID(id string) bool {
	for i, row := range t.rows {
		if row.ID == id {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// PageDown moves the cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	step := t.height / 2
	if step < 1 {
		step = 5
	}
	t.cursor += step
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves the cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	step := t.height / 2
	if step < 1 {
		step = 5
	}
	t.cursor -= step
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the selected row's parent.
func (t *TreeModel) JumpToParent() {
	row := t.SelectedRow()
	if row == nil || row.ParentID == "" {
		return
	}
	t.SelectByID(row.ParentID)
}

// ToggleExpand flips the expansion of the selected node and persists.
func (t *TreeModel) ToggleExpand() {
	row := t.SelectedRow()
	if row == nil || !row.HasChildren {
		return
	}
	if t.expanded[row.ID] {
		delete(t.expanded, row.ID)
	} else {
		t.expanded[row.ID] = true
	}
	t.rebuildRows()
	t.saveState()
}

// ExpandOrMoveToChild handles the right-arrow key: expand a collapsed
// node, otherwise step into its first child.
func (t *TreeModel) ExpandOrMoveToChild() {
	row := t.SelectedRow()
	if row == nil || !row.HasChildren {
		return
	}
	if !t.expanded[row.ID] {
		t.expanded[row.ID] = true
		t.rebuildRows()
		t.saveState()
		return
	}
	t.MoveDown() // first child is the next visible row
}

// CollapseOrJumpToParent handles the left-arrow key: collapse an
// expanded node, otherwise jump to the parent.
func (t *TreeModel) CollapseOrJumpToParent() {
	row := t.SelectedRow()
	if row == nil {
		return
	}
	if row.HasChildren && t.expanded[row.ID] {
		delete(t.expanded, row.ID)
		t.rebuildRows()
		t.saveState()
		return
	}
	t.JumpToParent()
}

// ExpandAll opens every non-leaf node.
func (t *TreeModel) ExpandAll() {
	for id := range t.branches {
		t.expanded[id] = true
	}
	t.rebuildRows()
	t.saveState()
}

// CollapseAll closes every node.
func (t *TreeModel) CollapseAll() {
	t.expanded = make(map[string]bool)
	t.rebuildRows()
	t.saveState()
}

// ensureCursorVisible scrolls the window so the cursor stays on screen.
func (t *TreeModel) ensureCursorVisible() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// visibleRows returns the slice of rows inside the current window.
func (t *TreeModel) visibleRows() []vtree.FlatRow {
	if len(t.rows) == 0 {
		return nil
	}
	start := t.offset
	end := start + t.height
	if t.height <= 0 {
		end = len(t.rows)
	}
	if end > len(t.rows) {
		end = len(t.rows)
	}
	if start > end {
		start = end
	}
	return t.rows[start:end]
}

// View renders the visible window of the tree.
func (t *TreeModel) View() string {
	if !t.built || len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	for i, row := range t.visibleRows() {
		idx := t.offset + i
		line := t.renderRow(row)
		if idx == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	title := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	muted := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(title.Render("Specification Tree"))
	sb.WriteString("\n\n")
	sb.WriteString(muted.Render("No entities to display."))
	sb.WriteString("\n")
	sb.WriteString(muted.Render("Load a spec file or create an epic with n."))
	return sb.String()
}

// renderRow renders one tree row: indent, expand indicator, type icon
// and the title, truncated to the available width.
func (t *TreeModel) renderRow(row vtree.FlatRow) string {
	r := t.theme.Renderer
	var sb strings.Builder

	indent := strings.Repeat("  ", row.Depth)
	sb.WriteString(indent)

	indicator := "•"
	if row.HasChildren {
		if row.IsExpanded {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	icon, iconColor := t.theme.TypeIcon(row.Type)
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	maxLabel := t.width - len(indent) - 6
	if maxLabel < 16 {
		maxLabel = 16
	}
	sb.WriteString(runewidth.Truncate(row.Label, maxLabel, "…"))

	return sb.String()
}

// IsBuilt reports whether Build has run.
func (t *TreeModel) IsBuilt() bool {
	return t.built
}

// RowCount returns the number of visible rows.
func (t *TreeModel) RowCount() int {
	return len(t.rows)
}

// ExpandedSet returns a copy of the current expansion set.
func (t *TreeModel) ExpandedSet() map[string]bool {
	out := make(map[string]bool, len(t.expanded))
	for id, v := range t.expanded {
		out[id] = v
	}
	return out
}

// ScrollInfo returns a compact position indicator like "12/80".
func (t *TreeModel) ScrollInfo() string {
	if len(t.rows) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", t.cursor+1, len(t.rows))
}
