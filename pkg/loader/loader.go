// Package loader reads specification trees from disk and hands them to the
// normalizer. It is the fetch-layer stand-in: the engine itself never
// touches storage.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/normalize"
)

// SpecFileName is the spec tree file inside a project's .specdeck/
// directory.
const SpecFileName = "spec.json"

// SpecPath returns the spec file path for a project directory.
func SpecPath(projectDir string) string {
	return filepath.Join(projectDir, config.ProjectDirName, SpecFileName)
}

// LoadTree reads and decodes the nested tree at path.
func LoadTree(path string) (*normalize.RawTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return normalize.Decode(data)
}

// LoadStore reads a spec file and normalizes it in one step. The store id
// is derived from the file unless rootID overrides it.
func LoadStore(path, rootID string) (normalize.Result, error) {
	tree, err := LoadTree(path)
	if err != nil {
		return normalize.Result{}, err
	}
	if rootID == "" {
		rootID = DeriveRootID(path)
	}
	return normalize.Normalize(tree, nil, rootID), nil
}

// SaveTree writes the nested tree to path, creating the .specdeck/
// directory if needed.
func SaveTree(path string, tree *normalize.RawTree) error {
	data, err := normalize.Encode(tree)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create spec directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write spec file: %w", err)
	}
	return nil
}

// DeriveRootID turns a spec file path into a stable application id: the
// project directory name, lowercased. "/srv/Shop/.specdeck/spec.json"
// becomes "shop".
func DeriveRootID(path string) string {
	dir := filepath.Dir(path) // .specdeck
	project := filepath.Base(filepath.Dir(dir))
	if project == "." || project == string(filepath.Separator) {
		return "app"
	}
	return strings.ToLower(project)
}
