// Package normalize converts the nested specification tree delivered by the
// remote source into the flat, id-indexed model.Store, and projects a store
// back into the nested shape.
package normalize

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// RawQuestion is a contextual question as it appears on the wire. The
// external id key is `documentId`; normalization renames it to `id`.
type RawQuestion struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// RawRisk is a risk/mitigation pair on the wire.
type RawRisk struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// RawCriterion is an acceptance-criteria line on the wire.
type RawCriterion struct {
	Text string `json:"text"`
}

// RawTask is the leaf of the nested payload.
type RawTask struct {
	DocumentID          string        `json:"documentId"`
	Title               string        `json:"title"`
	Details             string        `json:"details"`
	Priority            string        `json:"priority"`
	Notes               string        `json:"notes"`
	ContextualQuestions []RawQuestion `json:"contextualQuestions"`
}

// RawUserStory carries its tasks embedded.
type RawUserStory struct {
	DocumentID          string         `json:"documentId"`
	Title               string         `json:"title"`
	Role                string         `json:"role"`
	Action              string         `json:"action"`
	Goal                string         `json:"goal"`
	Points              int            `json:"points"`
	DevelopmentOrder    int            `json:"developmentOrder"`
	AcceptanceCriteria  []RawCriterion `json:"acceptanceCriteria"`
	Notes               string         `json:"notes"`
	Tasks               []RawTask      `json:"tasks"`
	ContextualQuestions []RawQuestion  `json:"contextualQuestions"`
}

// RawFeature carries its user stories embedded.
type RawFeature struct {
	DocumentID          string         `json:"documentId"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Details             string         `json:"details"`
	Dependencies        string         `json:"dependencies"`
	AcceptanceCriteria  []RawCriterion `json:"acceptanceCriteria"`
	Priority            string         `json:"priority"`
	Effort              string         `json:"effort"`
	Notes               string         `json:"notes"`
	UserStories         []RawUserStory `json:"userStories"`
	ContextualQuestions []RawQuestion  `json:"contextualQuestions"`
}

// RawEpic carries its features embedded.
type RawEpic struct {
	DocumentID          string        `json:"documentId"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Goal                string        `json:"goal"`
	SuccessCriteria     string        `json:"successCriteria"`
	Dependencies        string        `json:"dependencies"`
	Timeline            string        `json:"timeline"`
	Resources           string        `json:"resources"`
	RisksAndMitigation  []RawRisk     `json:"risksAndMitigation"`
	Notes               string        `json:"notes"`
	Features            []RawFeature  `json:"features"`
	ContextualQuestions []RawQuestion `json:"contextualQuestions"`
}

// RawTree is the full nested payload for one application.
type RawTree struct {
	Epics               []RawEpic     `json:"epics"`
	ContextualQuestions []RawQuestion `json:"contextualQuestions"`
	GlobalInformation   string        `json:"globalInformation"`
}

// Decode parses a raw nested tree from JSON bytes.
func Decode(data []byte) (*RawTree, error) {
	var tree RawTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode spec tree: %w", err)
	}
	return &tree, nil
}

// Encode serializes a raw nested tree to indented JSON bytes.
func Encode(tree *RawTree) ([]byte, error) {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode spec tree: %w", err)
	}
	return data, nil
}
