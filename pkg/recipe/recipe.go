// Package recipe defines reusable filter and sort presets for story plans.
// A recipe narrows the development-order output to one slice of the backlog:
// stories ready to start, quick wins, or the tangled ones worth untangling.
package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/specdeck/pkg/analysis"
	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/model"
)

// Recipe is one named view over the story plan.
type Recipe struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Filters     FilterConfig `yaml:"filters,omitempty" json:"filters,omitempty"`
	Sort        SortConfig   `yaml:"sort,omitempty" json:"sort,omitempty"`
	MaxItems    int          `yaml:"max_items,omitempty" json:"max_items,omitempty"`
}

// FilterConfig picks which stories a recipe keeps.
type FilterConfig struct {
	// MinPoints / MaxPoints bound story points. Zero means unbounded.
	MinPoints int `yaml:"min_points,omitempty" json:"min_points,omitempty"`
	MaxPoints int `yaml:"max_points,omitempty" json:"max_points,omitempty"`

	// TitleContains keeps stories whose title has this substring,
	// case-insensitive.
	TitleContains string `yaml:"title_contains,omitempty" json:"title_contains,omitempty"`

	// FeatureID keeps stories under one feature.
	FeatureID string `yaml:"feature_id,omitempty" json:"feature_id,omitempty"`

	// HasDependencies filters by whether a story waits on others.
	// true = only dependent stories, false = only independent ones.
	HasDependencies *bool `yaml:"has_dependencies,omitempty" json:"has_dependencies,omitempty"`

	// InCycle filters by circular-dependency membership.
	InCycle *bool `yaml:"in_cycle,omitempty" json:"in_cycle,omitempty"`
}

// SortConfig orders the surviving stories.
type SortConfig struct {
	Field     string `yaml:"field,omitempty" json:"field,omitempty"`         // order, points, title, id
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"` // asc, desc
}

// Apply filters and sorts plan items per the recipe. Points come from the
// store; a story missing from the store keeps zero points rather than being
// dropped. A nil recipe returns the items unchanged.
func Apply(plan analysis.Plan, s *model.Store, r *Recipe) []analysis.PlanItem {
	if r == nil {
		return plan.Items
	}

	inCycle := make(map[string]bool)
	for _, cycle := range plan.Cycles {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	points := func(id string) int {
		if us, ok := s.UserStories[id]; ok {
			return us.Points
		}
		return 0
	}

	f := r.Filters
	var items []analysis.PlanItem
	for _, item := range plan.Items {
		p := points(item.ID)
		if f.MinPoints > 0 && p < f.MinPoints {
			continue
		}
		if f.MaxPoints > 0 && p > f.MaxPoints {
			continue
		}
		if f.TitleContains != "" &&
			!strings.Contains(strings.ToLower(item.Title), strings.ToLower(f.TitleContains)) {
			continue
		}
		if f.FeatureID != "" && item.FeatureID != f.FeatureID {
			continue
		}
		if f.HasDependencies != nil && *f.HasDependencies != (len(item.DependsOn) > 0) {
			continue
		}
		if f.InCycle != nil && *f.InCycle != inCycle[item.ID] {
			continue
		}
		items = append(items, item)
	}

	applySort(items, s, r.Sort)

	if r.MaxItems > 0 && len(items) > r.MaxItems {
		items = items[:r.MaxItems]
	}
	return items
}

func applySort(items []analysis.PlanItem, s *model.Store, cfg SortConfig) {
	if cfg.Field == "" {
		return
	}
	ascending := cfg.Direction != "desc"

	points := func(id string) int {
		if us, ok := s.UserStories[id]; ok {
			return us.Points
		}
		return 0
	}

	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch cfg.Field {
		case "order":
			less = items[i].DevelopmentOrder < items[j].DevelopmentOrder
		case "points":
			less = points(items[i].ID) < points(items[j].ID)
		case "title":
			less = strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		case "id":
			less = items[i].ID < items[j].ID
		default:
			// Unknown sort field, keep plan order.
			return false
		}
		if ascending {
			return less
		}
		return !less
	})
}

// Builtin recipes.

// DefaultRecipe shows the whole plan in development order.
func DefaultRecipe() Recipe {
	return Recipe{
		Name:        "default",
		Description: "Every story in suggested development order",
		Sort:        SortConfig{Field: "order"},
	}
}

// ReadyRecipe keeps stories with no dependencies.
func ReadyRecipe() Recipe {
	hasDeps := false
	return Recipe{
		Name:        "ready",
		Description: "Stories with no dependencies, ready to start",
		Filters:     FilterConfig{HasDependencies: &hasDeps},
		Sort:        SortConfig{Field: "order"},
	}
}

// QuickWinsRecipe keeps small independent stories.
func QuickWinsRecipe() Recipe {
	hasDeps := false
	return Recipe{
		Name:        "quick-wins",
		Description: "Small stories (≤3 points) with no dependencies",
		Filters:     FilterConfig{MaxPoints: 3, HasDependencies: &hasDeps},
		Sort:        SortConfig{Field: "points"},
	}
}

// BigBetsRecipe keeps large stories, biggest first.
func BigBetsRecipe() Recipe {
	return Recipe{
		Name:        "big-bets",
		Description: "Large stories (≥8 points), biggest first",
		Filters:     FilterConfig{MinPoints: 8},
		Sort:        SortConfig{Field: "points", Direction: "desc"},
		MaxItems:    20,
	}
}

// TangledRecipe keeps stories caught in dependency cycles.
func TangledRecipe() Recipe {
	inCycle := true
	return Recipe{
		Name:        "tangled",
		Description: "Stories caught in circular dependencies",
		Filters:     FilterConfig{InCycle: &inCycle},
		Sort:        SortConfig{Field: "id"},
	}
}

// BuiltinRecipes returns every built-in recipe.
func BuiltinRecipes() []Recipe {
	return []Recipe{
		DefaultRecipe(),
		ReadyRecipe(),
		QuickWinsRecipe(),
		BigBetsRecipe(),
		TangledRecipe(),
	}
}

// Source says where a recipe came from; later sources override earlier ones
// by name.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceUser    Source = "user"
	SourceProject Source = "project"
)

// RecipesFileName is the recipe file name under .specdeck/ (project) or the
// user config directory.
const RecipesFileName = "recipes.yaml"

// Summary is one recipe listing entry.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      Source `json:"source"`
}

// Loader resolves recipe names across builtin, user, and project sources.
type Loader struct {
	recipes map[string]Recipe
	sources map[string]Source
}

// NewLoader returns a loader holding only the built-in recipes.
func NewLoader() *Loader {
	l := &Loader{
		recipes: make(map[string]Recipe),
		sources: make(map[string]Source),
	}
	for _, r := range BuiltinRecipes() {
		l.recipes[r.Name] = r
		l.sources[r.Name] = SourceBuiltin
	}
	return l
}

// LoadDefault builds a loader from builtins, the user recipe file, and the
// project recipe file, in that override order. Missing files are fine;
// unreadable ones fail.
func LoadDefault(projectDir string) (*Loader, error) {
	l := NewLoader()

	if dir, err := os.UserConfigDir(); err == nil {
		userPath := filepath.Join(dir, "specdeck", RecipesFileName)
		if err := l.loadFile(userPath, SourceUser); err != nil {
			return nil, err
		}
	}

	projectPath := filepath.Join(projectDir, config.ProjectDirName, RecipesFileName)
	if err := l.loadFile(projectPath, SourceProject); err != nil {
		return nil, err
	}

	return l, nil
}

type recipeFile struct {
	Recipes []Recipe `yaml:"recipes"`
}

func (l *Loader) loadFile(path string, source Source) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read recipes: %w", err)
	}

	var file recipeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse recipes %s: %w", path, err)
	}
	for _, r := range file.Recipes {
		if r.Name == "" {
			continue
		}
		l.recipes[r.Name] = r
		l.sources[r.Name] = source
	}
	return nil
}

// Get returns the named recipe, or nil.
func (l *Loader) Get(name string) *Recipe {
	r, ok := l.recipes[name]
	if !ok {
		return nil
	}
	return &r
}

// Names returns every recipe name, sorted.
func (l *Loader) Names() []string {
	names := make([]string, 0, len(l.recipes))
	for name := range l.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListSummaries returns a listing entry per recipe, sorted by name.
func (l *Loader) ListSummaries() []Summary {
	summaries := make([]Summary, 0, len(l.recipes))
	for _, name := range l.Names() {
		r := l.recipes[name]
		summaries = append(summaries, Summary{
			Name:        r.Name,
			Description: r.Description,
			Source:      l.sources[name],
		})
	}
	return summaries
}
