package normalize

import "github.com/vanderheijden86/specdeck/pkg/model"

// DefaultSelectedModel is the baseline model identifier stamped onto every
// normalized store. The upstream authoring flow overwrites it once the user
// picks a model; until then exports and prompts use this one.
const DefaultSelectedModel = "gpt-4o-mini"

// Default list shapes applied when the source omits an optional field.
// Each field gets a named factory so the per-field policy is visible in one
// place. Note the asymmetry: a feature with no acceptance criteria gets one
// empty placeholder row, because the authoring UI renders features with at
// least one editable criteria line. Every other list defaults to empty.

func defaultRiskList() []model.RiskMitigation {
	return []model.RiskMitigation{}
}

func defaultCriteriaList() []model.AcceptanceCriterion {
	return []model.AcceptanceCriterion{}
}

func defaultFeatureCriteriaList() []model.AcceptanceCriterion {
	return []model.AcceptanceCriterion{{Text: ""}}
}

func defaultQuestionList() []model.ContextualQuestion {
	return []model.ContextualQuestion{}
}

func defaultIDList() []string {
	return []string{}
}
