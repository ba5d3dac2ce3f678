// Package agents provides AGENTS.md integration for AI coding agents. It
// detects agent configuration files and injects sd usage instructions
// between versioned markers, so the blurb can be updated or removed later.
package agents

import (
	"regexp"
	"strings"
)

// BlurbVersion is the current version of the agent instructions blurb.
// Increment this when making breaking changes to the blurb format.
const BlurbVersion = 1

// BlurbStartMarker marks the beginning of injected agent instructions.
const BlurbStartMarker = "<!-- sd-agent-instructions-v1 -->"

// BlurbEndMarker marks the end of injected agent instructions.
const BlurbEndMarker = "<!-- end-sd-agent-instructions -->"

// AgentBlurb contains the instructions to be appended to AGENTS.md files.
const AgentBlurb = `<!-- sd-agent-instructions-v1 -->

---

## SpecDeck Workflow Integration

This project tracks its specification in a SpecDeck tree (` + "`" + `.specdeck/spec.json` + "`" + `):
Epics > Features > User Stories > Tasks.

### Essential Commands

` + "```" + `bash
# Interactive tree view (launches TUI - avoid in automated sessions)
sd

# Structured output for agents (use these instead)
sd --robot-outline     # Full tree as JSON, one row per entity
sd --robot-plan        # Dependency-respecting story order as JSON
sd --robot-plan -r ready   # Only stories with no open dependencies
sd --robot-history 10  # Last 10 recorded moves
sd --export-md report.md   # Readable status report with dependency graph
` + "```" + `

### Key Concepts

- **Hierarchy**: Every entity has exactly one parent; moving an item keeps
  its whole subtree.
- **Dependencies**: User stories can depend on other stories. The plan
  orders dependencies first and flags cycles.
- **Recipes**: Named plan views (ready, quick-wins, big-bets, tangled).
  List them with ` + "`" + `sd --robot-recipes` + "`" + `.

### Best Practices

- Start from ` + "`" + `sd --robot-plan -r ready` + "`" + ` to find unblocked stories
- Check ` + "`" + `sd --robot-outline` + "`" + ` before editing the spec file directly
- The spec file is watched: external edits reload the running TUI

<!-- end-sd-agent-instructions -->`

// SupportedAgentFiles lists the filenames that can contain agent instructions.
var SupportedAgentFiles = []string{
	"AGENTS.md",
	"CLAUDE.md",
	"agents.md",
	"claude.md",
}

// blurbVersionRegex extracts the version number from a blurb marker.
var blurbVersionRegex = regexp.MustCompile(`<!-- sd-agent-instructions-v(\d+) -->`)

// ContainsBlurb checks if the content already contains an sd agent blurb of
// any version.
func ContainsBlurb(content string) bool {
	return strings.Contains(content, "<!-- sd-agent-instructions-v")
}

// GetBlurbVersion extracts the version number from existing blurb content.
// Returns 0 when no blurb is present.
func GetBlurbVersion(content string) int {
	matches := blurbVersionRegex.FindStringSubmatch(content)
	if len(matches) < 2 {
		return 0
	}
	version := 0
	for _, c := range matches[1] {
		version = version*10 + int(c-'0')
	}
	return version
}

// NeedsUpdate checks if the content has an older version of the blurb.
func NeedsUpdate(content string) bool {
	if !ContainsBlurb(content) {
		return false
	}
	return GetBlurbVersion(content) < BlurbVersion
}

// AppendBlurb appends the agent blurb to the given content.
func AppendBlurb(content string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n"
	content += AgentBlurb
	content += "\n"
	return content
}

// RemoveBlurb removes an existing blurb from the content, along with the
// blank lines around it.
func RemoveBlurb(content string) string {
	startIdx := strings.Index(content, "<!-- sd-agent-instructions-v")
	if startIdx == -1 {
		return content
	}
	endIdx := strings.Index(content, BlurbEndMarker)
	if endIdx == -1 {
		return content
	}
	endIdx += len(BlurbEndMarker)
	for endIdx < len(content) && (content[endIdx] == '\n' || content[endIdx] == '\r') {
		endIdx++
	}
	for startIdx > 0 && (content[startIdx-1] == '\n' || content[startIdx-1] == '\r') {
		startIdx--
	}
	return content[:startIdx] + content[endIdx:]
}

// UpdateBlurb replaces an existing blurb with the current version.
func UpdateBlurb(content string) string {
	content = RemoveBlurb(content)
	return AppendBlurb(content)
}
