package parser

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"murphy/internal/timeline"
)

// #region schemas

type scenariosDoc struct {
	Problems  []timeline.Problem  `json:"problems"`
	Scenarios []timeline.Scenario `json:"scenarios"`
}

type dashboardDoc struct {
	Problems     []timeline.Problem     `json:"problems"`
	Improvements []timeline.Improvement `json:"improvements"`
	RevisedPlan  string                 `json:"revised_plan"`
}

type followupDoc struct {
	Tasks  []timeline.FollowupTask `json:"tasks"`
	Advice string                  `json:"advice"`
}

// #endregion schemas

// #region parse

// parseStructured decodes a JSON document matching the stage's schema.
// Markdown code fences are stripped first; a failed decode is retried once
// on the jsonrepair'd text before giving up with a FormatError.
func parseStructured(raw string, stage Stage) (Records, error) {
	doc := stripFences(raw)

	var rec Records
	err := decodeStage(doc, stage, &rec)
	if err == nil {
		return rec, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(doc)
	if repairErr == nil {
		if err2 := decodeStage(repaired, stage, &rec); err2 == nil {
			return rec, nil
		}
	}

	return Records{}, &FormatError{Raw: raw, Err: err}
}

func decodeStage(doc string, stage Stage, rec *Records) error {
	switch stage {
	case StageScenarios:
		var d scenariosDoc
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return err
		}
		rec.Problems = d.Problems
		rec.Scenarios = d.Scenarios
	case StageDashboard, StageRefine:
		var d dashboardDoc
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return err
		}
		rec.Problems = d.Problems
		rec.Improvements = d.Improvements
		rec.RevisedPlan = strings.TrimSpace(d.RevisedPlan)
	case StageFollowup:
		var d followupDoc
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return err
		}
		rec.Tasks = d.Tasks
		rec.Advice = strings.TrimSpace(d.Advice)
	}
	return nil
}

// #endregion parse

// #region fences

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving bare JSON.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// #endregion fences
