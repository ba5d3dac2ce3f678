// Package breadcrumb resolves the ancestor path of any node in the
// specification hierarchy. Breadcrumbs are advisory navigation aids: a
// broken parent reference degrades to a shorter path, never an error.
package breadcrumb

import "github.com/vanderheijden86/specdeck/pkg/model"

// Ref identifies the node a breadcrumb path is requested for. Title is
// carried by the caller because the node itself may not live in the store
// yet (e.g. an unsaved creation form).
type Ref struct {
	ID    string
	Type  model.NodeType
	Title string
}

// Entry is one link in a breadcrumb path, ordered root-to-leaf.
type Entry struct {
	ID        string
	Type      model.NodeType
	Title     string
	TypeLabel string
	IsCurrent bool
}

// AncestorIDs walks parent references upward from the node's immediate
// parent and returns ancestor ids ordered root-first. An epic has no
// ancestors. A broken link ends the walk early; the ids gathered so far are
// still returned.
func AncestorIDs(id string, typ model.NodeType, s *model.Store) []string {
	var ids []string
	cur, curType := id, typ
	for {
		parentType, ok := curType.ParentType()
		if !ok {
			break
		}
		parentID, ok := s.ParentID(cur, curType)
		if !ok || parentID == "" {
			break
		}
		ids = append([]string{parentID}, ids...)
		cur, curType = parentID, parentType
	}
	return ids
}

// BuildPath returns the full breadcrumb path for a node: every resolvable
// ancestor root-first, then the node itself marked current. Ancestors that
// do not resolve in the store are omitted; Unresolved reports how many
// links were dropped so the caller can log a diagnostic.
func BuildPath(ref Ref, s *model.Store) (path []Entry, unresolved int) {
	ancestorIDs := AncestorIDs(ref.ID, ref.Type, s)

	// Expected ancestor chain has one entry per level above the node; a
	// shorter chain means the upward walk hit a dangling reference.
	unresolved = ref.Type.Depth() - len(ancestorIDs)
	if unresolved < 0 {
		unresolved = 0
	}

	// Ancestor types line up with the levels above ref.Type, shallowest
	// first. The walk may have stopped early, so align from the leaf end.
	types := ancestorTypes(ref.Type)
	offset := len(types) - len(ancestorIDs)

	for i, id := range ancestorIDs {
		typ := types[offset+i]
		title, ok := s.Title(id, typ)
		if !ok {
			unresolved++
			continue
		}
		path = append(path, Entry{
			ID:        id,
			Type:      typ,
			Title:     title,
			TypeLabel: typ.Label(),
		})
	}

	path = append(path, Entry{
		ID:        ref.ID,
		Type:      ref.Type,
		Title:     ref.Title,
		TypeLabel: ref.Type.Label(),
		IsCurrent: true,
	})
	return path, unresolved
}

// ancestorTypes returns the levels above typ, root-first.
func ancestorTypes(typ model.NodeType) []model.NodeType {
	var types []model.NodeType
	cur := typ
	for {
		parent, ok := cur.ParentType()
		if !ok {
			break
		}
		types = append([]model.NodeType{parent}, types...)
		cur = parent
	}
	return types
}
