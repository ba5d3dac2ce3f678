package normalize

import "github.com/vanderheijden86/specdeck/pkg/model"

// Result is the outcome of one normalization pass. Skipped counts entries
// dropped because they carried no external id (including their descendants,
// which become unreachable once the parent is dropped). A non-zero count is
// advisory: the store is still usable.
type Result struct {
	Store   *model.Store
	Skipped int
}

// Normalize converts a nested tree into an id-indexed store.
//
// Each embedded child list is lifted into its own level map and replaced on
// the parent by an ordered child-id array; every entity gets its parent's id
// stamped on its parent-reference field, so both sides of the link exist
// from creation. Entries without a documentId are skipped and counted, never
// fatal: one corrupt leaf must not fail a whole import.
//
// chatAPI may be nil (coerced to ""). A nil or empty tree yields a valid
// empty store.
func Normalize(raw *RawTree, chatAPI *string, rootID string) Result {
	store := model.NewStore()
	store.ID = rootID
	store.SelectedModel = DefaultSelectedModel
	if chatAPI != nil {
		store.ChatAPI = *chatAPI
	}

	res := Result{Store: store}
	if raw == nil {
		return res
	}

	store.GlobalInformation = raw.GlobalInformation
	store.ContextualQuestions = mapQuestions(raw.ContextualQuestions)

	for _, rawEpic := range raw.Epics {
		if rawEpic.DocumentID == "" {
			res.Skipped += 1 + countEpicDescendants(rawEpic)
			continue
		}

		epic := &model.Epic{
			ID:                  rawEpic.DocumentID,
			ParentAppID:         rootID,
			Title:               rawEpic.Title,
			Description:         rawEpic.Description,
			Goal:                rawEpic.Goal,
			SuccessCriteria:     rawEpic.SuccessCriteria,
			Dependencies:        rawEpic.Dependencies,
			Timeline:            rawEpic.Timeline,
			Resources:           rawEpic.Resources,
			RisksAndMitigation:  mapRisks(rawEpic.RisksAndMitigation),
			Notes:               rawEpic.Notes,
			ContextualQuestions: mapQuestions(rawEpic.ContextualQuestions),
			FeatureIDs:          defaultIDList(),
		}

		for _, rawFeature := range rawEpic.Features {
			if rawFeature.DocumentID == "" {
				res.Skipped += 1 + countFeatureDescendants(rawFeature)
				continue
			}

			feature := &model.Feature{
				ID:                  rawFeature.DocumentID,
				ParentEpicID:        epic.ID,
				Title:               rawFeature.Title,
				Description:         rawFeature.Description,
				Details:             rawFeature.Details,
				Dependencies:        rawFeature.Dependencies,
				AcceptanceCriteria:  mapFeatureCriteria(rawFeature.AcceptanceCriteria),
				Priority:            rawFeature.Priority,
				Effort:              rawFeature.Effort,
				Notes:               rawFeature.Notes,
				ContextualQuestions: mapQuestions(rawFeature.ContextualQuestions),
				UserStoryIDs:        defaultIDList(),
			}

			for _, rawStory := range rawFeature.UserStories {
				if rawStory.DocumentID == "" {
					res.Skipped += 1 + len(rawStory.Tasks)
					continue
				}

				story := &model.UserStory{
					ID:                    rawStory.DocumentID,
					ParentFeatureID:       feature.ID,
					Title:                 rawStory.Title,
					Role:                  rawStory.Role,
					Action:                rawStory.Action,
					Goal:                  rawStory.Goal,
					Points:                rawStory.Points,
					AcceptanceCriteria:    mapCriteria(rawStory.AcceptanceCriteria),
					DevelopmentOrder:      rawStory.DevelopmentOrder,
					DependentUserStoryIDs: defaultIDList(),
					Notes:                 rawStory.Notes,
					ContextualQuestions:   mapQuestions(rawStory.ContextualQuestions),
					TaskIDs:               defaultIDList(),
				}

				for _, rawTask := range rawStory.Tasks {
					if rawTask.DocumentID == "" {
						res.Skipped++
						continue
					}

					task := &model.Task{
						ID:                  rawTask.DocumentID,
						ParentUserStoryID:   story.ID,
						Title:               rawTask.Title,
						Details:             rawTask.Details,
						Priority:            rawTask.Priority,
						DependentTaskIDs:    defaultIDList(),
						Notes:               rawTask.Notes,
						ContextualQuestions: mapQuestions(rawTask.ContextualQuestions),
					}
					store.Tasks[task.ID] = task
					story.TaskIDs = append(story.TaskIDs, task.ID)
				}

				store.UserStories[story.ID] = story
				feature.UserStoryIDs = append(feature.UserStoryIDs, story.ID)
			}

			store.Features[feature.ID] = feature
			epic.FeatureIDs = append(epic.FeatureIDs, feature.ID)
		}

		store.Epics[epic.ID] = epic
	}

	return res
}

// mapQuestions reshapes wire questions ({documentId, ...}) into model
// questions ({id, ...}). A nil list becomes an empty one.
func mapQuestions(in []RawQuestion) []model.ContextualQuestion {
	if len(in) == 0 {
		return defaultQuestionList()
	}
	out := make([]model.ContextualQuestion, len(in))
	for i, q := range in {
		out[i] = model.ContextualQuestion{
			ID:       q.DocumentID,
			Question: q.Question,
			Answer:   q.Answer,
		}
	}
	return out
}

func mapRisks(in []RawRisk) []model.RiskMitigation {
	if len(in) == 0 {
		return defaultRiskList()
	}
	out := make([]model.RiskMitigation, len(in))
	for i, r := range in {
		out[i] = model.RiskMitigation{Risk: r.Risk, Mitigation: r.Mitigation}
	}
	return out
}

func mapCriteria(in []RawCriterion) []model.AcceptanceCriterion {
	if len(in) == 0 {
		return defaultCriteriaList()
	}
	out := make([]model.AcceptanceCriterion, len(in))
	for i, c := range in {
		out[i] = model.AcceptanceCriterion{Text: c.Text}
	}
	return out
}

// mapFeatureCriteria applies the feature-specific placeholder default; see
// defaults.go for why features differ from every other level.
func mapFeatureCriteria(in []RawCriterion) []model.AcceptanceCriterion {
	if len(in) == 0 {
		return defaultFeatureCriteriaList()
	}
	return mapCriteria(in)
}

func countEpicDescendants(e RawEpic) int {
	n := len(e.Features)
	for _, f := range e.Features {
		n += countFeatureDescendants(f)
	}
	return n
}

func countFeatureDescendants(f RawFeature) int {
	n := len(f.UserStories)
	for _, s := range f.UserStories {
		n += len(s.Tasks)
	}
	return n
}
