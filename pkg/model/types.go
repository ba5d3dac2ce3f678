package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeType identifies a level of the specification hierarchy.
// Containment order is fixed: epic > feature > userStory > task.
type NodeType string

const (
	TypeEpic      NodeType = "epic"
	TypeFeature   NodeType = "feature"
	TypeUserStory NodeType = "userStory"
	TypeTask      NodeType = "task"
)

// IsValid returns true if the node type is a recognized value.
func (t NodeType) IsValid() bool {
	switch t {
	case TypeEpic, TypeFeature, TypeUserStory, TypeTask:
		return true
	}
	return false
}

// Label returns the fixed display string for a node type.
func (t NodeType) Label() string {
	switch t {
	case TypeEpic:
		return "Epic"
	case TypeFeature:
		return "Feature"
	case TypeUserStory:
		return "User Story"
	case TypeTask:
		return "Task"
	default:
		return string(t)
	}
}

// ParentType returns the hierarchy level one above t.
// ok is false for epics (the application root is not an entity level).
func (t NodeType) ParentType() (parent NodeType, ok bool) {
	switch t {
	case TypeFeature:
		return TypeEpic, true
	case TypeUserStory:
		return TypeFeature, true
	case TypeTask:
		return TypeUserStory, true
	}
	return "", false
}

// ChildType returns the hierarchy level one below t.
// ok is false for tasks (leaf level).
func (t NodeType) ChildType() (child NodeType, ok bool) {
	switch t {
	case TypeEpic:
		return TypeFeature, true
	case TypeFeature:
		return TypeUserStory, true
	case TypeUserStory:
		return TypeTask, true
	}
	return "", false
}

// Depth returns the nesting depth of the level (epic = 0, task = 3).
func (t NodeType) Depth() int {
	switch t {
	case TypeEpic:
		return 0
	case TypeFeature:
		return 1
	case TypeUserStory:
		return 2
	case TypeTask:
		return 3
	default:
		return -1
	}
}

// NewID generates a fresh entity id, prefixed with the level so ids stay
// readable in the spec file.
func NewID(t NodeType) string {
	return strings.ToLower(string(t)) + "-" + uuid.NewString()[:8]
}

// ContextualQuestion is a question/answer pair attached to any entity.
type ContextualQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RiskMitigation is a single risk entry on an epic.
type RiskMitigation struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// AcceptanceCriterion is a single acceptance-criteria line.
type AcceptanceCriterion struct {
	Text string `json:"text"`
}

// Epic is the top entity level of the hierarchy.
type Epic struct {
	ID                  string               `json:"id"`
	ParentAppID         string               `json:"parentAppId"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Goal                string               `json:"goal"`
	SuccessCriteria     string               `json:"successCriteria"`
	Dependencies        string               `json:"dependencies"`
	Timeline            string               `json:"timeline"`
	Resources           string               `json:"resources"`
	RisksAndMitigation  []RiskMitigation     `json:"risksAndMitigation"`
	Notes               string               `json:"notes"`
	ContextualQuestions []ContextualQuestion `json:"contextualQuestions"`
	FeatureIDs          []string             `json:"featureIds"`
}

// Feature groups user stories under an epic.
type Feature struct {
	ID                  string                `json:"id"`
	ParentEpicID        string                `json:"parentEpicId"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Details             string                `json:"details"`
	Dependencies        string                `json:"dependencies"`
	AcceptanceCriteria  []AcceptanceCriterion `json:"acceptanceCriteria"`
	Priority            string                `json:"priority"`
	Effort              string                `json:"effort"`
	Notes               string                `json:"notes"`
	ContextualQuestions []ContextualQuestion  `json:"contextualQuestions"`
	UserStoryIDs        []string              `json:"userStoryIds"`
}

// UserStory describes a slice of user-visible behavior under a feature.
type UserStory struct {
	ID                    string                `json:"id"`
	ParentFeatureID       string                `json:"parentFeatureId"`
	Title                 string                `json:"title"`
	Role                  string                `json:"role"`
	Action                string                `json:"action"`
	Goal                  string                `json:"goal"`
	Points                int                   `json:"points"`
	AcceptanceCriteria    []AcceptanceCriterion `json:"acceptanceCriteria"`
	DevelopmentOrder      int                   `json:"developmentOrder"`
	DependentUserStoryIDs []string              `json:"dependentUserStoryIds"`
	Notes                 string                `json:"notes"`
	ContextualQuestions   []ContextualQuestion  `json:"contextualQuestions"`
	TaskIDs               []string              `json:"taskIds"`
}

// Task is the leaf entity level.
type Task struct {
	ID                  string               `json:"id"`
	ParentUserStoryID   string               `json:"parentUserStoryId"`
	Title               string               `json:"title"`
	Details             string               `json:"details"`
	Priority            string               `json:"priority"`
	DependentTaskIDs    []string             `json:"dependentTaskIds"`
	Notes               string               `json:"notes"`
	ContextualQuestions []ContextualQuestion `json:"contextualQuestions"`
}

// Validate checks that an epic carries the minimum required data.
func (e *Epic) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("epic ID cannot be empty")
	}
	return nil
}

// Validate checks that a feature carries the minimum required data.
func (f *Feature) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("feature ID cannot be empty")
	}
	return nil
}

// Validate checks that a user story carries the minimum required data.
func (u *UserStory) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user story ID cannot be empty")
	}
	return nil
}

// Validate checks that a task carries the minimum required data.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// Clone creates a deep copy of the epic.
func (e Epic) Clone() Epic {
	clone := e
	clone.RisksAndMitigation = cloneSlice(e.RisksAndMitigation)
	clone.ContextualQuestions = cloneSlice(e.ContextualQuestions)
	clone.FeatureIDs = cloneSlice(e.FeatureIDs)
	return clone
}

// Clone creates a deep copy of the feature.
func (f Feature) Clone() Feature {
	clone := f
	clone.AcceptanceCriteria = cloneSlice(f.AcceptanceCriteria)
	clone.ContextualQuestions = cloneSlice(f.ContextualQuestions)
	clone.UserStoryIDs = cloneSlice(f.UserStoryIDs)
	return clone
}

// Clone creates a deep copy of the user story.
func (u UserStory) Clone() UserStory {
	clone := u
	clone.AcceptanceCriteria = cloneSlice(u.AcceptanceCriteria)
	clone.DependentUserStoryIDs = cloneSlice(u.DependentUserStoryIDs)
	clone.ContextualQuestions = cloneSlice(u.ContextualQuestions)
	clone.TaskIDs = cloneSlice(u.TaskIDs)
	return clone
}

// Clone creates a deep copy of the task.
func (t Task) Clone() Task {
	clone := t
	clone.DependentTaskIDs = cloneSlice(t.DependentTaskIDs)
	clone.ContextualQuestions = cloneSlice(t.ContextualQuestions)
	return clone
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
