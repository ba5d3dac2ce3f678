// Package vtree flattens a hierarchical node list into ordered rows and
// computes which row window intersects a viewport. All functions are pure;
// callers own the expansion state and the scroll position.
package vtree

import "github.com/vanderheijden86/specdeck/pkg/model"

// Fixed row geometry. Every row renders at the same height, which is what
// makes position and range math O(1).
const (
	RowHeight = 36 // pixels per row
	Overscan  = 5  // extra rows rendered past each viewport edge
)

// Node is the hierarchical input shape. Children order is display order.
type Node struct {
	ID       string
	Label    string
	Type     model.NodeType
	Children []*Node
}

// FlatRow is one visible row of the flattened tree.
type FlatRow struct {
	ID          string
	Depth       int
	Label       string
	Type        model.NodeType
	IsExpanded  bool
	HasChildren bool
	ParentID    string
}

// Range is a closed row-index interval [Start, End].
type Range struct {
	Start int
	End   int
}

// Position locates one row for absolute positioning.
type Position struct {
	Top    int
	Height int
}

// Flatten performs a pre-order depth-first traversal, emitting one row per
// reachable node. Children are visited only when their parent both has
// children and is in the expanded set; a collapsed subtree is absent from
// the output entirely, not hidden. A leaf is never reported expanded even
// when its id is in the set.
func Flatten(nodes []*Node, expanded map[string]bool) []FlatRow {
	var rows []FlatRow
	appendRows(&rows, nodes, expanded, 0, "")
	return rows
}

func appendRows(rows *[]FlatRow, nodes []*Node, expanded map[string]bool, depth int, parentID string) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		hasChildren := len(node.Children) > 0
		isExpanded := hasChildren && expanded[node.ID]
		*rows = append(*rows, FlatRow{
			ID:          node.ID,
			Depth:       depth,
			Label:       node.Label,
			Type:        node.Type,
			IsExpanded:  isExpanded,
			HasChildren: hasChildren,
			ParentID:    parentID,
		})
		if isExpanded {
			appendRows(rows, node.Children, expanded, depth+1, node.ID)
		}
	}
}

// VisibleRange computes the closed row window for a scroll offset and
// viewport height, padded by Overscan on both sides and clamped to the
// list. The result is always non-negative and non-decreasing, including
// for empty and single-row lists.
func VisibleRange(scrollOffset, viewportHeight, itemCount int) Range {
	if itemCount <= 0 {
		return Range{}
	}

	firstVisible := scrollOffset / RowHeight
	visibleCount := (viewportHeight + RowHeight - 1) / RowHeight

	start := firstVisible - Overscan
	if start < 0 {
		start = 0
	}
	end := firstVisible + visibleCount + Overscan
	if end > itemCount-1 {
		end = itemCount - 1
	}
	if start > end {
		start = end
	}
	return Range{Start: start, End: end}
}

// ItemPosition returns the absolute position of a row. O(1): no sibling is
// ever measured.
func ItemPosition(index int) Position {
	return Position{Top: index * RowHeight, Height: RowHeight}
}

// TreeHeight returns the total pixel height of a fully laid out list, used
// to size a scroll container without rendering any rows.
func TreeHeight(itemCount int) int {
	return itemCount * RowHeight
}

// BuildNodes converts a normalized store into the hierarchical input shape,
// ordered by the child-id arrays (epics title-sorted, since the store keeps
// no epic display order). Child ids that do not resolve are skipped.
func BuildNodes(s *model.Store) []*Node {
	var roots []*Node
	for _, epicID := range s.EpicIDs() {
		epic := s.Epics[epicID]
		epicNode := &Node{ID: epic.ID, Label: epic.Title, Type: model.TypeEpic}
		for _, featureID := range epic.FeatureIDs {
			feature, ok := s.Features[featureID]
			if !ok {
				continue
			}
			featureNode := &Node{ID: feature.ID, Label: feature.Title, Type: model.TypeFeature}
			for _, storyID := range feature.UserStoryIDs {
				story, ok := s.UserStories[storyID]
				if !ok {
					continue
				}
				storyNode := &Node{ID: story.ID, Label: story.Title, Type: model.TypeUserStory}
				for _, taskID := range story.TaskIDs {
					task, ok := s.Tasks[taskID]
					if !ok {
						continue
					}
					storyNode.Children = append(storyNode.Children, &Node{
						ID:    task.ID,
						Label: task.Title,
						Type:  model.TypeTask,
					})
				}
				featureNode.Children = append(featureNode.Children, storyNode)
			}
			epicNode.Children = append(epicNode.Children, featureNode)
		}
		roots = append(roots, epicNode)
	}
	return roots
}
