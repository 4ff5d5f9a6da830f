package parser

import (
	"errors"
	"testing"
)

func TestParseStructuredScenarios(t *testing.T) {
	raw := `{
		"problems": [{"title": "A", "desc": "descA"}, {"title": "B", "desc": "descB"}],
		"scenarios": [{
			"title": "E1", "desc": "descE1",
			"options": [
				{"text": "o1", "scores": {"stress": 2, "deviation": 1, "feasibility": 9}},
				{"text": "o2", "scores": {"stress": 8, "deviation": 9, "feasibility": 2}},
				{"text": "o3", "scores": {"stress": 5, "deviation": 5, "feasibility": 5}}
			]
		}]
	}`

	rec, err := New(ModeStructured).Parse(raw, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Problems) != 2 || len(rec.Scenarios) != 1 {
		t.Fatalf("got %d problems, %d scenarios", len(rec.Problems), len(rec.Scenarios))
	}
	if rec.Scenarios[0].Options[1].Scores.Deviation != 9 {
		t.Fatalf("option scores = %+v", rec.Scenarios[0].Options[1].Scores)
	}
}

func TestParseStructuredFenced(t *testing.T) {
	raw := "```json\n{\"problems\": [{\"title\": \"A\", \"desc\": \"d\"}], \"scenarios\": []}\n```"
	rec, err := New(ModeStructured).Parse(raw, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Problems) != 1 {
		t.Fatalf("expected 1 problem, got %d", len(rec.Problems))
	}
}

func TestParseStructuredRepairsTrailingComma(t *testing.T) {
	raw := `{"improvements": [{"title": "I", "desc": "d"},], "revised_plan": "plan text",}`
	rec, err := New(ModeStructured).Parse(raw, StageRefine)
	if err != nil {
		t.Fatalf("Parse after repair: %v", err)
	}
	if len(rec.Improvements) != 1 || rec.RevisedPlan != "plan text" {
		t.Fatalf("records = %+v", rec)
	}
}

func TestParseStructuredMissingKeysDefault(t *testing.T) {
	rec, err := New(ModeStructured).Parse(`{"advice": "hold fast"}`, StageFollowup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Tasks) != 0 {
		t.Fatalf("expected empty tasks, got %d", len(rec.Tasks))
	}
	if rec.Advice != "hold fast" {
		t.Fatalf("advice = %q", rec.Advice)
	}
}

func TestParseStructuredHopelessInput(t *testing.T) {
	_, err := New(ModeStructured).Parse("The timeline resists structured output.", StageDashboard)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Raw == "" {
		t.Fatal("FormatError should carry raw text")
	}
}
