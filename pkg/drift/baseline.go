package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/specdeck/pkg/analysis"
	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/model"
)

// BaselineFileName is the snapshot file inside a project's .specdeck/
// directory.
const BaselineFileName = "baseline.json"

// TreeStats summarizes the shape of a spec tree at one point in time.
type TreeStats struct {
	Epics           int `json:"epics"`
	Features        int `json:"features"`
	UserStories     int `json:"userStories"`
	Tasks           int `json:"tasks"`
	DependencyEdges int `json:"dependencyEdges"`
	CycleCount      int `json:"cycleCount"`
}

// Total returns the entity count across all levels.
func (s TreeStats) Total() int {
	return s.Epics + s.Features + s.UserStories + s.Tasks
}

// Baseline is a saved snapshot of tree structure, used as the reference
// point for drift detection.
type Baseline struct {
	CreatedAt   time.Time  `json:"createdAt"`
	Description string     `json:"description,omitempty"`
	Stats       TreeStats  `json:"stats"`
	StoryIDs    []string   `json:"storyIds,omitempty"`
	Cycles      [][]string `json:"cycles,omitempty"`
}

// Capture builds a baseline from the current store. Cycles and dependency
// edges come from the story plan, which already drops dangling edges.
func Capture(s *model.Store, description string) Baseline {
	plan := analysis.StoryPlan(s)

	edges := 0
	storyIDs := make([]string, 0, len(plan.Items))
	for _, item := range plan.Items {
		edges += len(item.DependsOn)
		storyIDs = append(storyIDs, item.ID)
	}
	sort.Strings(storyIDs)

	return Baseline{
		CreatedAt:   time.Now().UTC(),
		Description: description,
		Stats: TreeStats{
			Epics:           s.Count(model.TypeEpic),
			Features:        s.Count(model.TypeFeature),
			UserStories:     s.Count(model.TypeUserStory),
			Tasks:           s.Count(model.TypeTask),
			DependencyEdges: edges,
			CycleCount:      len(plan.Cycles),
		},
		StoryIDs: storyIDs,
		Cycles:   plan.Cycles,
	}
}

// DefaultPath returns the baseline file path for a project directory.
func DefaultPath(projectDir string) string {
	return filepath.Join(projectDir, config.ProjectDirName, BaselineFileName)
}

// Exists reports whether a baseline file is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save writes the baseline to path, creating the directory if needed.
func (b Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create baseline directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	return nil
}

// Load reads a baseline file.
func Load(path string) (Baseline, error) {
	var b Baseline
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read baseline: %w", err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	return b, nil
}

// Summary renders the baseline for terminal display.
func (b Baseline) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Baseline created: %s\n", b.CreatedAt.Format(time.RFC1123))
	if b.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", b.Description)
	}
	fmt.Fprintf(&sb, "Tree: %d epics, %d features, %d stories, %d tasks\n",
		b.Stats.Epics, b.Stats.Features, b.Stats.UserStories, b.Stats.Tasks)
	fmt.Fprintf(&sb, "Dependencies: %d edges, %d cycles\n",
		b.Stats.DependencyEdges, b.Stats.CycleCount)
	return sb.String()
}
