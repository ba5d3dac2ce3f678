// Package workspace loads several specification projects together, for
// teams that split one product across repositories.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/specdeck/pkg/loader"
	"github.com/vanderheijden86/specdeck/pkg/normalize"
)

// Config is a workspace file (.specdeck/workspace.yaml).
type Config struct {
	// Name is the workspace display name.
	Name string `yaml:"name,omitempty"`

	// Specs lists the projects in this workspace.
	Specs []SpecConfig `yaml:"specs"`
}

// SpecConfig points at a single project's spec tree.
type SpecConfig struct {
	// Name is the display name (default: project directory name).
	Name string `yaml:"name,omitempty"`

	// Path is the project directory, relative to the workspace file or
	// absolute.
	Path string `yaml:"path"`

	// Enabled controls whether the spec is loaded (default: true).
	Enabled *bool `yaml:"enabled,omitempty"`
}

// Loaded is one project's normalized result.
type Loaded struct {
	Name   string
	Path   string
	Result normalize.Result
}

// LoadConfig reads a workspace file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read workspace config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse workspace config %s: %w", path, err)
	}
	if len(cfg.Specs) == 0 {
		return cfg, fmt.Errorf("workspace config %s lists no specs", path)
	}
	return cfg, nil
}

// LoadAll loads every enabled spec concurrently, preserving config order
// in the result. baseDir anchors relative paths (normally the directory
// holding the workspace file). The first load error fails the whole call;
// partial workspaces are worse than a clear failure.
func LoadAll(cfg Config, baseDir string) ([]Loaded, error) {
	slots := make([]*Loaded, len(cfg.Specs))

	var g errgroup.Group
	g.SetLimit(4)

	for i, spec := range cfg.Specs {
		if spec.Enabled != nil && !*spec.Enabled {
			continue
		}

		projectDir := spec.Path
		if !filepath.IsAbs(projectDir) {
			projectDir = filepath.Join(baseDir, projectDir)
		}
		name := spec.Name
		if name == "" {
			name = filepath.Base(projectDir)
		}

		g.Go(func() error {
			res, err := loader.LoadStore(loader.SpecPath(projectDir), "")
			if err != nil {
				return fmt.Errorf("workspace spec %s: %w", name, err)
			}
			slots[i] = &Loaded{Name: name, Path: projectDir, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]Loaded, 0, len(slots))
	for _, l := range slots {
		if l != nil {
			loaded = append(loaded, *l)
		}
	}
	return loaded, nil
}
