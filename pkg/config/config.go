// Package config locates specdeck projects on disk and loads the user's
// registry of known projects. A project is any directory containing a
// .specdeck/ subdirectory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectDirName is the marker directory that identifies a project root.
const ProjectDirName = ".specdeck"

// Project is one registered or discovered project.
type Project struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// ResolvedPath expands a leading ~ and returns an absolute-ish path.
func (p Project) ResolvedPath() string {
	return expandHome(p.Path)
}

// DiscoveryConfig controls scanning for unregistered projects.
type DiscoveryConfig struct {
	ScanPaths []string `yaml:"scan_paths,omitempty"`
	MaxDepth  int      `yaml:"max_depth,omitempty"`
}

// Config is the user-level registry, usually at
// ~/.config/specdeck/config.yaml.
type Config struct {
	Projects  []Project       `yaml:"projects,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
}

// DefaultPath returns the standard location of the registry file.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "specdeck", "config.yaml")
	}
	return filepath.Join(expandHome("~"), ".config", "specdeck", "config.yaml")
}

// Load reads a registry file. A missing file is not an error: discovery
// still works with an empty registry.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DiscoverProjects merges registered projects with any found under the
// configured scan paths, preferring the registered name when a path
// matches.
func DiscoverProjects(cfg Config) []Project {
	seen := make(map[string]bool)
	var result []Project

	for _, p := range cfg.Projects {
		resolved := p.ResolvedPath()
		seen[resolved] = true
		result = append(result, p)
	}

	for _, scanPath := range cfg.Discovery.ScanPaths {
		maxDepth := cfg.Discovery.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 3
		}
		for _, found := range scanForProjects(scanPath, maxDepth) {
			if !seen[found] {
				seen[found] = true
				result = append(result, Project{
					Name: filepath.Base(found),
					Path: found,
				})
			}
		}
	}

	return result
}

// scanForProjects walks a directory tree up to maxDepth levels deep,
// looking for directories that contain .specdeck/.
func scanForProjects(root string, maxDepth int) []string {
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}

		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if currentDepth > maxDepth {
			return filepath.SkipDir
		}

		// Skip hidden directories (except the marker itself).
		name := d.Name()
		if strings.HasPrefix(name, ".") && name != ProjectDirName {
			return filepath.SkipDir
		}

		marker := filepath.Join(path, ProjectDirName)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			results = append(results, path)
			return filepath.SkipDir // don't recurse into projects
		}

		return nil
	})

	return results
}

// DetectCurrentProject walks up from the working directory looking for a
// .specdeck/ directory.
func DetectCurrentProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findProjectRoot(dir)
}

func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		marker := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		if home != "" && dir == home {
			break // don't go above home
		}
		dir = parent
	}
	return "", false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
