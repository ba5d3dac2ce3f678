package model

import "sort"

// Store is the normalized, id-indexed representation of one application's
// specification hierarchy. Every level is a map keyed by entity id; display
// order lives in the parent's child-id arrays, never in map iteration order.
//
// The store is a plain value contract shared by the normalizer, the
// breadcrumb resolver, the move engine, and the tree virtualizer. None of
// those components mutate it; the owning state container does (see
// pkg/store).
type Store struct {
	ID                  string               `json:"id"`
	ChatAPI             string               `json:"chatApi"`
	GlobalInformation   string               `json:"globalInformation"`
	SelectedModel       string               `json:"selectedModel"`
	ContextualQuestions []ContextualQuestion `json:"contextualQuestions"`

	Epics       map[string]*Epic      `json:"epics"`
	Features    map[string]*Feature   `json:"features"`
	UserStories map[string]*UserStory `json:"userStories"`
	Tasks       map[string]*Task      `json:"tasks"`
}

// NewStore returns an empty store with all level maps allocated.
func NewStore() *Store {
	return &Store{
		ContextualQuestions: []ContextualQuestion{},
		Epics:               make(map[string]*Epic),
		Features:            make(map[string]*Feature),
		UserStories:         make(map[string]*UserStory),
		Tasks:               make(map[string]*Task),
	}
}

// Exists reports whether an entity with the given id is present at the
// given level.
func (s *Store) Exists(id string, typ NodeType) bool {
	switch typ {
	case TypeEpic:
		_, ok := s.Epics[id]
		return ok
	case TypeFeature:
		_, ok := s.Features[id]
		return ok
	case TypeUserStory:
		_, ok := s.UserStories[id]
		return ok
	case TypeTask:
		_, ok := s.Tasks[id]
		return ok
	}
	return false
}

// Count returns the number of entities at a level.
func (s *Store) Count(typ NodeType) int {
	switch typ {
	case TypeEpic:
		return len(s.Epics)
	case TypeFeature:
		return len(s.Features)
	case TypeUserStory:
		return len(s.UserStories)
	case TypeTask:
		return len(s.Tasks)
	}
	return 0
}

// Title resolves the display title of an entity. ok is false when the id
// does not exist at the given level.
func (s *Store) Title(id string, typ NodeType) (title string, ok bool) {
	switch typ {
	case TypeEpic:
		if e, found := s.Epics[id]; found {
			return e.Title, true
		}
	case TypeFeature:
		if f, found := s.Features[id]; found {
			return f.Title, true
		}
	case TypeUserStory:
		if u, found := s.UserStories[id]; found {
			return u.Title, true
		}
	case TypeTask:
		if t, found := s.Tasks[id]; found {
			return t.Title, true
		}
	}
	return "", false
}

// ParentID resolves the parent-reference field of an entity. ok is false
// when the entity does not exist. Epics resolve to the application id.
func (s *Store) ParentID(id string, typ NodeType) (parentID string, ok bool) {
	switch typ {
	case TypeEpic:
		if e, found := s.Epics[id]; found {
			return e.ParentAppID, true
		}
	case TypeFeature:
		if f, found := s.Features[id]; found {
			return f.ParentEpicID, true
		}
	case TypeUserStory:
		if u, found := s.UserStories[id]; found {
			return u.ParentFeatureID, true
		}
	case TypeTask:
		if t, found := s.Tasks[id]; found {
			return t.ParentUserStoryID, true
		}
	}
	return "", false
}

// ChildIDs returns the ordered child-id array of an entity, or nil when the
// entity does not exist or sits at the leaf level.
func (s *Store) ChildIDs(id string, typ NodeType) []string {
	switch typ {
	case TypeEpic:
		if e, found := s.Epics[id]; found {
			return e.FeatureIDs
		}
	case TypeFeature:
		if f, found := s.Features[id]; found {
			return f.UserStoryIDs
		}
	case TypeUserStory:
		if u, found := s.UserStories[id]; found {
			return u.TaskIDs
		}
	}
	return nil
}

// EpicIDs returns all epic ids ordered by title for stable enumeration.
// Map iteration order is explicitly not display order, so callers that need
// determinism go through this helper.
func (s *Store) EpicIDs() []string {
	ids := make([]string, 0, len(s.Epics))
	for id := range s.Epics {
		ids = append(ids, id)
	}
	sortByTitle(ids, func(id string) string { return s.Epics[id].Title })
	return ids
}

// Clone creates a deep copy of the store. Used by callers that need a
// stable snapshot across an interactive flow (e.g. a move session while the
// backing container keeps changing).
func (s *Store) Clone() *Store {
	clone := NewStore()
	clone.ID = s.ID
	clone.ChatAPI = s.ChatAPI
	clone.GlobalInformation = s.GlobalInformation
	clone.SelectedModel = s.SelectedModel
	clone.ContextualQuestions = cloneSlice(s.ContextualQuestions)

	for id, e := range s.Epics {
		v := e.Clone()
		clone.Epics[id] = &v
	}
	for id, f := range s.Features {
		v := f.Clone()
		clone.Features[id] = &v
	}
	for id, u := range s.UserStories {
		v := u.Clone()
		clone.UserStories[id] = &v
	}
	for id, t := range s.Tasks {
		v := t.Clone()
		clone.Tasks[id] = &v
	}
	return clone
}

// sortByTitle orders ids by their entity title, falling back to the id
// itself so equal titles still sort deterministically.
func sortByTitle(ids []string, title func(string) string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := title(ids[i]), title(ids[j])
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
}
