package normalize

import "github.com/vanderheijden86/specdeck/pkg/model"

// Project rebuilds the nested wire shape from a normalized store by walking
// the child-id arrays. It is the inverse of Normalize up to entity ordering
// at the epic level (the store keeps no epic display order, so epics come
// out title-sorted). Dangling child ids are silently skipped; Project never
// fails.
func Project(s *model.Store) *RawTree {
	tree := &RawTree{
		Epics:               []RawEpic{},
		ContextualQuestions: projectQuestions(s.ContextualQuestions),
		GlobalInformation:   s.GlobalInformation,
	}

	for _, epicID := range s.EpicIDs() {
		epic := s.Epics[epicID]
		rawEpic := RawEpic{
			DocumentID:          epic.ID,
			Title:               epic.Title,
			Description:         epic.Description,
			Goal:                epic.Goal,
			SuccessCriteria:     epic.SuccessCriteria,
			Dependencies:        epic.Dependencies,
			Timeline:            epic.Timeline,
			Resources:           epic.Resources,
			RisksAndMitigation:  projectRisks(epic.RisksAndMitigation),
			Notes:               epic.Notes,
			Features:            []RawFeature{},
			ContextualQuestions: projectQuestions(epic.ContextualQuestions),
		}

		for _, featureID := range epic.FeatureIDs {
			feature, ok := s.Features[featureID]
			if !ok {
				continue
			}
			rawFeature := RawFeature{
				DocumentID:          feature.ID,
				Title:               feature.Title,
				Description:         feature.Description,
				Details:             feature.Details,
				Dependencies:        feature.Dependencies,
				AcceptanceCriteria:  projectCriteria(feature.AcceptanceCriteria),
				Priority:            feature.Priority,
				Effort:              feature.Effort,
				Notes:               feature.Notes,
				UserStories:         []RawUserStory{},
				ContextualQuestions: projectQuestions(feature.ContextualQuestions),
			}

			for _, storyID := range feature.UserStoryIDs {
				story, ok := s.UserStories[storyID]
				if !ok {
					continue
				}
				rawStory := RawUserStory{
					DocumentID:          story.ID,
					Title:               story.Title,
					Role:                story.Role,
					Action:              story.Action,
					Goal:                story.Goal,
					Points:              story.Points,
					DevelopmentOrder:    story.DevelopmentOrder,
					AcceptanceCriteria:  projectCriteria(story.AcceptanceCriteria),
					Notes:               story.Notes,
					Tasks:               []RawTask{},
					ContextualQuestions: projectQuestions(story.ContextualQuestions),
				}

				for _, taskID := range story.TaskIDs {
					task, ok := s.Tasks[taskID]
					if !ok {
						continue
					}
					rawStory.Tasks = append(rawStory.Tasks, RawTask{
						DocumentID:          task.ID,
						Title:               task.Title,
						Details:             task.Details,
						Priority:            task.Priority,
						Notes:               task.Notes,
						ContextualQuestions: projectQuestions(task.ContextualQuestions),
					})
				}

				rawFeature.UserStories = append(rawFeature.UserStories, rawStory)
			}

			rawEpic.Features = append(rawEpic.Features, rawFeature)
		}

		tree.Epics = append(tree.Epics, rawEpic)
	}

	return tree
}

func projectQuestions(in []model.ContextualQuestion) []RawQuestion {
	out := make([]RawQuestion, len(in))
	for i, q := range in {
		out[i] = RawQuestion{DocumentID: q.ID, Question: q.Question, Answer: q.Answer}
	}
	return out
}

func projectRisks(in []model.RiskMitigation) []RawRisk {
	out := make([]RawRisk, len(in))
	for i, r := range in {
		out[i] = RawRisk{Risk: r.Risk, Mitigation: r.Mitigation}
	}
	return out
}

func projectCriteria(in []model.AcceptanceCriterion) []RawCriterion {
	out := make([]RawCriterion, len(in))
	for i, c := range in {
		out[i] = RawCriterion{Text: c.Text}
	}
	return out
}
