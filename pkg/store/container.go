// Package store owns a mutable model.Store and serializes all writes to
// it. It is the reference implementation of the single-writer state
// container the read-only components (breadcrumb, move, vtree) are designed
// against: move plans, inserts, and deletes all commit here, and Check
// verifies the hierarchy invariants after the fact.
package store

import (
	"fmt"
	"sync"

	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/move"
)

// Container wraps a store behind a mutex. Readers take Snapshot (a deep
// clone, so staleness is explicit); writers go through the mutating
// methods.
type Container struct {
	mu sync.Mutex
	s  *model.Store
}

// New creates a container over an existing store. A nil store starts empty.
func New(s *model.Store) *Container {
	if s == nil {
		s = model.NewStore()
	}
	return &Container{s: s}
}

// Replace swaps the underlying store, used when the spec file changes on
// disk. In-flight snapshots keep the old view; their plans will fail
// re-validation if the reload invalidated them.
func (c *Container) Replace(s *model.Store) {
	if s == nil {
		s = model.NewStore()
	}
	c.mu.Lock()
	c.s = s
	c.mu.Unlock()
}

// Snapshot returns a deep copy of the current store. Components that hold
// it across user interaction (a move session, a render pass) see a frozen
// view; Apply failures tell them when it went stale.
func (c *Container) Snapshot() *model.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Clone()
}

// Apply commits a successful move plan: the item id leaves the old parent's
// child array, joins the new parent's (at the end), and the item's parent
// field follows. The edit is atomic under the container lock; a plan that
// no longer matches the store is rejected whole.
func (c *Container) Apply(typ model.NodeType, plan *move.Result) error {
	if plan == nil || !plan.Success {
		return fmt.Errorf("apply: plan is missing or not successful")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parentType, ok := typ.ParentType()
	if !ok {
		return fmt.Errorf("apply: %s nodes cannot be reparented", typ)
	}
	if !c.s.Exists(plan.ItemID, typ) {
		return fmt.Errorf("apply: item %s no longer exists", plan.ItemID)
	}
	if !c.s.Exists(plan.ToParentID, parentType) {
		return fmt.Errorf("apply: target parent %s no longer exists", plan.ToParentID)
	}
	if current := c.currentParentID(plan.ItemID, typ); current != plan.FromParentID {
		return fmt.Errorf("apply: item %s has moved since planning (now under %s, plan expected %s)",
			plan.ItemID, current, plan.FromParentID)
	}

	switch typ {
	case model.TypeFeature:
		from, to := c.s.Epics[plan.FromParentID], c.s.Epics[plan.ToParentID]
		if from != nil {
			from.FeatureIDs = removeID(from.FeatureIDs, plan.ItemID)
		}
		to.FeatureIDs = append(to.FeatureIDs, plan.ItemID)
		c.s.Features[plan.ItemID].ParentEpicID = plan.ToParentID
	case model.TypeUserStory:
		from, to := c.s.Features[plan.FromParentID], c.s.Features[plan.ToParentID]
		if from != nil {
			from.UserStoryIDs = removeID(from.UserStoryIDs, plan.ItemID)
		}
		to.UserStoryIDs = append(to.UserStoryIDs, plan.ItemID)
		c.s.UserStories[plan.ItemID].ParentFeatureID = plan.ToParentID
	case model.TypeTask:
		from, to := c.s.UserStories[plan.FromParentID], c.s.UserStories[plan.ToParentID]
		if from != nil {
			from.TaskIDs = removeID(from.TaskIDs, plan.ItemID)
		}
		to.TaskIDs = append(to.TaskIDs, plan.ItemID)
		c.s.Tasks[plan.ItemID].ParentUserStoryID = plan.ToParentID
	}
	return nil
}

// currentParentID reads the item's parent field under the container lock.
func (c *Container) currentParentID(id string, typ model.NodeType) string {
	switch typ {
	case model.TypeFeature:
		return c.s.Features[id].ParentEpicID
	case model.TypeUserStory:
		return c.s.UserStories[id].ParentFeatureID
	case model.TypeTask:
		return c.s.Tasks[id].ParentUserStoryID
	}
	return ""
}

// InsertEpic adds an epic to the store. Creation forms use these Insert
// methods so both sides of the parent/child link are written together.
func (c *Container) InsertEpic(e *model.Epic) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := e.Validate(); err != nil {
		return err
	}
	if _, exists := c.s.Epics[e.ID]; exists {
		return fmt.Errorf("insert: epic %s already exists", e.ID)
	}
	if e.FeatureIDs == nil {
		e.FeatureIDs = []string{}
	}
	e.ParentAppID = c.s.ID
	c.s.Epics[e.ID] = e
	return nil
}

// InsertFeature adds a feature under an existing epic.
func (c *Container) InsertFeature(f *model.Feature) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := f.Validate(); err != nil {
		return err
	}
	if _, exists := c.s.Features[f.ID]; exists {
		return fmt.Errorf("insert: feature %s already exists", f.ID)
	}
	epic, ok := c.s.Epics[f.ParentEpicID]
	if !ok {
		return fmt.Errorf("insert: parent epic %s not found", f.ParentEpicID)
	}
	if f.UserStoryIDs == nil {
		f.UserStoryIDs = []string{}
	}
	c.s.Features[f.ID] = f
	epic.FeatureIDs = append(epic.FeatureIDs, f.ID)
	return nil
}

// InsertUserStory adds a user story under an existing feature.
func (c *Container) InsertUserStory(u *model.UserStory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := u.Validate(); err != nil {
		return err
	}
	if _, exists := c.s.UserStories[u.ID]; exists {
		return fmt.Errorf("insert: user story %s already exists", u.ID)
	}
	feature, ok := c.s.Features[u.ParentFeatureID]
	if !ok {
		return fmt.Errorf("insert: parent feature %s not found", u.ParentFeatureID)
	}
	if u.TaskIDs == nil {
		u.TaskIDs = []string{}
	}
	c.s.UserStories[u.ID] = u
	feature.UserStoryIDs = append(feature.UserStoryIDs, u.ID)
	return nil
}

// InsertTask adds a task under an existing user story.
func (c *Container) InsertTask(t *model.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := c.s.Tasks[t.ID]; exists {
		return fmt.Errorf("insert: task %s already exists", t.ID)
	}
	story, ok := c.s.UserStories[t.ParentUserStoryID]
	if !ok {
		return fmt.Errorf("insert: parent user story %s not found", t.ParentUserStoryID)
	}
	c.s.Tasks[t.ID] = t
	story.TaskIDs = append(story.TaskIDs, t.ID)
	return nil
}

// Delete removes an entity, strips it from its parent's child array, and
// cascade-deletes its descendants.
func (c *Container) Delete(id string, typ model.NodeType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.s.Exists(id, typ) {
		return fmt.Errorf("delete: %s %s not found", typ, id)
	}

	switch typ {
	case model.TypeEpic:
		epic := c.s.Epics[id]
		for _, fid := range epic.FeatureIDs {
			c.deleteFeature(fid)
		}
		delete(c.s.Epics, id)
	case model.TypeFeature:
		if epic, ok := c.s.Epics[c.s.Features[id].ParentEpicID]; ok {
			epic.FeatureIDs = removeID(epic.FeatureIDs, id)
		}
		c.deleteFeature(id)
	case model.TypeUserStory:
		if feature, ok := c.s.Features[c.s.UserStories[id].ParentFeatureID]; ok {
			feature.UserStoryIDs = removeID(feature.UserStoryIDs, id)
		}
		c.deleteUserStory(id)
	case model.TypeTask:
		if story, ok := c.s.UserStories[c.s.Tasks[id].ParentUserStoryID]; ok {
			story.TaskIDs = removeID(story.TaskIDs, id)
		}
		delete(c.s.Tasks, id)
	}
	return nil
}

func (c *Container) deleteFeature(id string) {
	feature, ok := c.s.Features[id]
	if !ok {
		return
	}
	for _, sid := range feature.UserStoryIDs {
		c.deleteUserStory(sid)
	}
	delete(c.s.Features, id)
}

func (c *Container) deleteUserStory(id string) {
	story, ok := c.s.UserStories[id]
	if !ok {
		return
	}
	for _, tid := range story.TaskIDs {
		delete(c.s.Tasks, tid)
	}
	delete(c.s.UserStories, id)
}

// Check verifies the hierarchy invariants: every parent reference resolves
// one level up, every parent/child link exists on both sides, and no child
// id appears twice in an array. The first violation found is returned.
func (c *Container) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.s

	for id, f := range s.Features {
		epic, ok := s.Epics[f.ParentEpicID]
		if !ok {
			return fmt.Errorf("feature %s: parent epic %s does not exist", id, f.ParentEpicID)
		}
		if !containsID(epic.FeatureIDs, id) {
			return fmt.Errorf("feature %s: epic %s does not list it", id, epic.ID)
		}
	}
	for id, u := range s.UserStories {
		f, ok := s.Features[u.ParentFeatureID]
		if !ok {
			return fmt.Errorf("user story %s: parent feature %s does not exist", id, u.ParentFeatureID)
		}
		if !containsID(f.UserStoryIDs, id) {
			return fmt.Errorf("user story %s: feature %s does not list it", id, f.ID)
		}
	}
	for id, t := range s.Tasks {
		u, ok := s.UserStories[t.ParentUserStoryID]
		if !ok {
			return fmt.Errorf("task %s: parent user story %s does not exist", id, t.ParentUserStoryID)
		}
		if !containsID(u.TaskIDs, id) {
			return fmt.Errorf("task %s: user story %s does not list it", id, u.ID)
		}
	}

	// Child arrays: every listed id resolves, has the matching parent field,
	// and appears exactly once.
	for id, epic := range s.Epics {
		if err := checkChildArray(epic.FeatureIDs, func(cid string) (string, bool) {
			f, ok := s.Features[cid]
			if !ok {
				return "", false
			}
			return f.ParentEpicID, true
		}, id); err != nil {
			return fmt.Errorf("epic %s: %w", id, err)
		}
	}
	for id, f := range s.Features {
		if err := checkChildArray(f.UserStoryIDs, func(cid string) (string, bool) {
			u, ok := s.UserStories[cid]
			if !ok {
				return "", false
			}
			return u.ParentFeatureID, true
		}, id); err != nil {
			return fmt.Errorf("feature %s: %w", id, err)
		}
	}
	for id, u := range s.UserStories {
		if err := checkChildArray(u.TaskIDs, func(cid string) (string, bool) {
			t, ok := s.Tasks[cid]
			if !ok {
				return "", false
			}
			return t.ParentUserStoryID, true
		}, id); err != nil {
			return fmt.Errorf("user story %s: %w", id, err)
		}
	}
	return nil
}

func checkChildArray(ids []string, parentOf func(string) (string, bool), wantParent string) error {
	seen := make(map[string]bool, len(ids))
	for _, cid := range ids {
		if seen[cid] {
			return fmt.Errorf("child %s listed twice", cid)
		}
		seen[cid] = true
		parent, ok := parentOf(cid)
		if !ok {
			return fmt.Errorf("child %s does not exist", cid)
		}
		if parent != wantParent {
			return fmt.Errorf("child %s claims parent %s", cid, parent)
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
