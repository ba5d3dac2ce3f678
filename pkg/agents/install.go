package agents

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindAgentFile returns the first supported agent file present in the
// project directory, or "" when none exists.
func FindAgentFile(projectDir string) string {
	for _, name := range SupportedAgentFiles {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Install writes the current blurb into the project's agent file, creating
// AGENTS.md when no agent file exists. Returns the file touched and whether
// anything changed; an up-to-date blurb is left alone.
func Install(projectDir string) (string, bool, error) {
	path := FindAgentFile(projectDir)
	if path == "" {
		path = filepath.Join(projectDir, SupportedAgentFiles[0])
	}

	var content string
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return path, false, fmt.Errorf("read agent file: %w", err)
	}

	switch {
	case ContainsBlurb(content) && !NeedsUpdate(content):
		return path, false, nil
	case ContainsBlurb(content):
		content = UpdateBlurb(content)
	default:
		content = AppendBlurb(content)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return path, false, fmt.Errorf("write agent file: %w", err)
	}
	return path, true, nil
}
