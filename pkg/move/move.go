// Package move plans reparenting operations on the specification hierarchy.
// The engine enumerates legal destinations, validates a proposed move, and
// emits a plan; it never mutates the store. Committing the two-sided
// child-array edit belongs to the owning state container (pkg/store).
package move

import (
	"sort"
	"strings"

	"github.com/vanderheijden86/specdeck/pkg/model"
)

// Phase is the session's position in the move flow.
type Phase int

const (
	PhaseIdle      Phase = iota // no move in flight
	PhaseSelecting              // item chosen, destination pending
	PhaseReady                  // destination chosen, plan can be emitted
)

// Item identifies the node being relocated.
type Item struct {
	ID       string
	Type     model.NodeType
	Title    string
	ParentID string
}

// PotentialParent is one legal destination, annotated for display.
type PotentialParent struct {
	ID        string
	Title     string
	Path      string // ancestor chain, e.g. "Epic Title > Feature Title"
	IsCurrent bool   // already the item's parent
}

// Result is the move plan handed back to the caller. When Success is false
// the Error field explains why; a failed result is a value, not an error.
type Result struct {
	Success      bool
	Error        string
	ItemID       string
	FromParentID string
	ToParentID   string
}

// Validation is the outcome of a standalone move check.
type Validation struct {
	Valid bool
	Error string
}

// Validation / result messages. These surface directly in the UI, hence the
// sentence casing.
const (
	errSameParent    = "Item is already under this parent"
	errNoParentLevel = "This item type cannot be moved"
	errBadParent     = "Target parent does not exist"
	errGone          = "Item or target no longer exists"
)

// CanMove reports whether relocating a node of the given type is
// meaningful: the level above must offer at least two parents to choose
// between.
func CanMove(typ model.NodeType, s *model.Store) bool {
	parentType, ok := typ.ParentType()
	if !ok {
		return false
	}
	return s.Count(parentType) >= 2
}

// PotentialParents enumerates every entity at the parent level for typ.
// The item's current parent sorts first; the rest follow alphabetically by
// title (case-sensitive).
func PotentialParents(typ model.NodeType, currentParentID string, s *model.Store) []PotentialParent {
	parentType, ok := typ.ParentType()
	if !ok {
		return nil
	}

	var parents []PotentialParent
	appendParent := func(id, title string) {
		parents = append(parents, PotentialParent{
			ID:        id,
			Title:     title,
			Path:      parentPath(id, parentType, s),
			IsCurrent: id == currentParentID,
		})
	}

	switch parentType {
	case model.TypeEpic:
		for id, e := range s.Epics {
			appendParent(id, e.Title)
		}
	case model.TypeFeature:
		for id, f := range s.Features {
			appendParent(id, f.Title)
		}
	case model.TypeUserStory:
		for id, u := range s.UserStories {
			appendParent(id, u.Title)
		}
	}

	sort.Slice(parents, func(i, j int) bool {
		if parents[i].IsCurrent != parents[j].IsCurrent {
			return parents[i].IsCurrent
		}
		if parents[i].Title != parents[j].Title {
			return parents[i].Title < parents[j].Title
		}
		return parents[i].ID < parents[j].ID
	})
	return parents
}

// parentPath renders the destination's own ancestor chain, target included,
// so nested destinations are tellable apart ("Epic A > Login" vs
// "Epic B > Login"). Epic destinations need no path. Links that do not
// resolve are left out, matching the breadcrumb resolver's tolerance.
func parentPath(id string, typ model.NodeType, s *model.Store) string {
	if typ == model.TypeEpic {
		return ""
	}

	var titles []string
	cur, curType := id, typ
	for {
		title, ok := s.Title(cur, curType)
		if ok {
			titles = append([]string{title}, titles...)
		}
		parentType, hasParent := curType.ParentType()
		if !hasParent {
			break
		}
		parentID, ok := s.ParentID(cur, curType)
		if !ok || parentID == "" {
			break
		}
		cur, curType = parentID, parentType
	}
	return strings.Join(titles, " > ")
}

// ValidateMove is the standalone check usable without a session: the target
// must exist at the correct level and differ from the current parent.
func ValidateMove(item Item, newParentID string, s *model.Store) Validation {
	parentType, ok := item.Type.ParentType()
	if !ok {
		return Validation{Error: errNoParentLevel}
	}
	if !s.Exists(newParentID, parentType) {
		return Validation{Error: errBadParent}
	}
	if newParentID == item.ParentID {
		return Validation{Error: errSameParent}
	}
	return Validation{Valid: true}
}

// Session drives one interactive move: idle -> selecting -> ready -> idle.
// It holds a read-only reference to the store snapshot it was opened on;
// Execute re-validates against that snapshot so a store that changed
// underneath the flow produces a failed result instead of a broken plan.
type Session struct {
	store      *model.Store
	phase      Phase
	item       Item
	candidates []PotentialParent
	selected   PotentialParent
	hasChoice  bool
}

// NewSession creates an idle session over one store snapshot.
func NewSession(s *model.Store) *Session {
	return &Session{store: s, phase: PhaseIdle}
}

// Phase returns the session's current phase.
func (m *Session) Phase() Phase { return m.phase }

// Item returns the item being moved. Meaningful only outside PhaseIdle.
func (m *Session) Item() Item { return m.item }

// Candidates returns the potential parents computed by Start.
func (m *Session) Candidates() []PotentialParent { return m.candidates }

// Start records the item being relocated and computes its potential
// parents, clearing any prior selection.
func (m *Session) Start(item Item) {
	m.item = item
	m.candidates = PotentialParents(item.Type, item.ParentID, m.store)
	m.hasChoice = false
	m.selected = PotentialParent{}
	m.phase = PhaseSelecting
}

// SelectParent records the chosen destination. No mutation happens yet.
func (m *Session) SelectParent(p PotentialParent) {
	if m.phase == PhaseIdle {
		return
	}
	m.selected = p
	m.hasChoice = true
	m.phase = PhaseReady
}

// Cancel clears session state without producing a plan.
func (m *Session) Cancel() {
	*m = Session{store: m.store, phase: PhaseIdle}
}

// Execute emits the move plan and resets the session. It returns nil when
// no item or no destination has been chosen (the session keeps its phase in
// that case). Choosing the current parent, or racing a store that dropped
// the item or target, yields a failed Result.
func (m *Session) Execute() *Result {
	if m.phase != PhaseReady || !m.hasChoice {
		return nil
	}

	res := &Result{
		ItemID:       m.item.ID,
		FromParentID: m.item.ParentID,
		ToParentID:   m.selected.ID,
	}

	parentType, _ := m.item.Type.ParentType()
	switch {
	case !m.store.Exists(m.item.ID, m.item.Type),
		!m.store.Exists(m.selected.ID, parentType):
		res.Error = errGone
	case m.selected.ID == m.item.ParentID:
		res.Error = errSameParent
	default:
		res.Success = true
	}

	m.Cancel()
	return res
}
