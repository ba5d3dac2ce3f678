// Package drift compares the current spec tree to a saved baseline and
// reports structural changes worth a closer look: new dependency cycles,
// vanished stories, and unusual growth.
package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/specdeck/pkg/config"
)

// Severity ranks an alert. Critical alerts fail CI runs; warnings ask for
// review; info is context only.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType categorizes drift alerts.
type AlertType string

const (
	AlertNewCycle      AlertType = "new_cycle"
	AlertResolvedCycle AlertType = "resolved_cycle"
	AlertRemovedStory  AlertType = "removed_story"
	AlertStoryGrowth   AlertType = "story_growth"
	AlertEdgeGrowth    AlertType = "edge_growth"
	AlertCountChange   AlertType = "count_change"
)

// Alert is one observed drift finding.
type Alert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Result is a full drift check: every alert plus the exit code the CLI
// should use (0 clean, 1 critical, 2 warning).
type Result struct {
	HasDrift bool    `json:"has_drift"`
	ExitCode int     `json:"exit_code"`
	Critical int     `json:"critical"`
	Warning  int     `json:"warning"`
	Info     int     `json:"info"`
	Alerts   []Alert `json:"alerts"`
}

// ConfigFileName is the drift threshold file inside .specdeck/.
const ConfigFileName = "drift.yaml"

// Thresholds tunes when growth becomes a warning.
type Thresholds struct {
	// StoryGrowth is the absolute story-count increase that triggers a
	// warning. Zero uses the default.
	StoryGrowth int `yaml:"story_growth_threshold"`

	// EdgeGrowthPct is the relative dependency-edge increase (percent)
	// that triggers a warning. Zero uses the default.
	EdgeGrowthPct float64 `yaml:"edge_growth_pct"`
}

// DefaultThresholds returns the built-in limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StoryGrowth:   10,
		EdgeGrowthPct: 50,
	}
}

// LoadThresholds reads .specdeck/drift.yaml from a project directory. A
// missing file yields the defaults; unset fields fall back per-field.
func LoadThresholds(projectDir string) (Thresholds, error) {
	t := DefaultThresholds()

	path := filepath.Join(projectDir, config.ProjectDirName, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read drift config: %w", err)
	}

	var loaded Thresholds
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return t, fmt.Errorf("parse drift config %s: %w", path, err)
	}
	if loaded.StoryGrowth > 0 {
		t.StoryGrowth = loaded.StoryGrowth
	}
	if loaded.EdgeGrowthPct > 0 {
		t.EdgeGrowthPct = loaded.EdgeGrowthPct
	}
	return t, nil
}

// Calculator compares two baselines.
type Calculator struct {
	base       Baseline
	current    Baseline
	thresholds Thresholds
}

// NewCalculator builds a calculator. current is normally Capture() over the
// live store.
func NewCalculator(base, current Baseline, thresholds Thresholds) *Calculator {
	return &Calculator{base: base, current: current, thresholds: thresholds}
}

// Calculate runs every drift check and aggregates the result.
func (c *Calculator) Calculate() Result {
	var alerts []Alert

	alerts = append(alerts, c.cycleAlerts()...)
	alerts = append(alerts, c.storyAlerts()...)
	alerts = append(alerts, c.growthAlerts()...)
	alerts = append(alerts, c.countAlerts()...)

	res := Result{Alerts: alerts}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			res.Critical++
		case SeverityWarning:
			res.Warning++
		default:
			res.Info++
		}
	}
	res.HasDrift = len(alerts) > 0
	switch {
	case res.Critical > 0:
		res.ExitCode = 1
	case res.Warning > 0:
		res.ExitCode = 2
	}
	return res
}

// cycleKey normalizes a cycle so the same loop compares equal regardless of
// rotation.
func cycleKey(cycle []string) string {
	sorted := append([]string(nil), cycle...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func (c *Calculator) cycleAlerts() []Alert {
	baseKeys := make(map[string][]string, len(c.base.Cycles))
	for _, cy := range c.base.Cycles {
		baseKeys[cycleKey(cy)] = cy
	}
	currentKeys := make(map[string][]string, len(c.current.Cycles))
	for _, cy := range c.current.Cycles {
		currentKeys[cycleKey(cy)] = cy
	}

	var alerts []Alert
	for key, cy := range currentKeys {
		if _, ok := baseKeys[key]; !ok {
			alerts = append(alerts, Alert{
				Type:     AlertNewCycle,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("new dependency cycle: %s", strings.Join(cy, " ↔ ")),
			})
		}
	}
	for key, cy := range baseKeys {
		if _, ok := currentKeys[key]; !ok {
			alerts = append(alerts, Alert{
				Type:     AlertResolvedCycle,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("dependency cycle resolved: %s", strings.Join(cy, " ↔ ")),
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Message < alerts[j].Message })
	return alerts
}

func (c *Calculator) storyAlerts() []Alert {
	current := make(map[string]bool, len(c.current.StoryIDs))
	for _, id := range c.current.StoryIDs {
		current[id] = true
	}

	var removed []string
	for _, id := range c.base.StoryIDs {
		if !current[id] {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	return []Alert{{
		Type:     AlertRemovedStory,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d stories removed since baseline: %s", len(removed), strings.Join(removed, ", ")),
	}}
}

func (c *Calculator) growthAlerts() []Alert {
	var alerts []Alert

	storyDelta := c.current.Stats.UserStories - c.base.Stats.UserStories
	if storyDelta >= c.thresholds.StoryGrowth {
		alerts = append(alerts, Alert{
			Type:     AlertStoryGrowth,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("story count grew by %d (threshold %d)", storyDelta, c.thresholds.StoryGrowth),
		})
	}

	if c.base.Stats.DependencyEdges > 0 {
		edgeDelta := c.current.Stats.DependencyEdges - c.base.Stats.DependencyEdges
		pct := float64(edgeDelta) / float64(c.base.Stats.DependencyEdges) * 100
		if pct >= c.thresholds.EdgeGrowthPct {
			alerts = append(alerts, Alert{
				Type:     AlertEdgeGrowth,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("dependency edges grew by %.0f%% (threshold %.0f%%)", pct, c.thresholds.EdgeGrowthPct),
			})
		}
	}

	return alerts
}

func (c *Calculator) countAlerts() []Alert {
	var alerts []Alert
	add := func(label string, base, current int) {
		if base != current {
			alerts = append(alerts, Alert{
				Type:     AlertCountChange,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("%s: %+d (%d → %d)", label, current-base, base, current),
			})
		}
	}
	add("epics", c.base.Stats.Epics, c.current.Stats.Epics)
	add("features", c.base.Stats.Features, c.current.Stats.Features)
	add("user stories", c.base.Stats.UserStories, c.current.Stats.UserStories)
	add("tasks", c.base.Stats.Tasks, c.current.Stats.Tasks)
	return alerts
}

// Format renders a result for terminal display.
func (r Result) Format() string {
	var sb strings.Builder
	if !r.HasDrift {
		sb.WriteString("No drift from baseline.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Drift detected: %d critical, %d warning, %d info\n\n", r.Critical, r.Warning, r.Info)
	for _, a := range r.Alerts {
		marker := "·"
		switch a.Severity {
		case SeverityCritical:
			marker = "✗"
		case SeverityWarning:
			marker = "⚠"
		}
		fmt.Fprintf(&sb, "  %s [%s] %s\n", marker, a.Type, a.Message)
	}
	return sb.String()
}
