package parser

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

const scenarioFixture = "A|descA##B|descB---E1|descE1|O1 [Stress: 2, Deviation: 1, Feasibility: 9]|O2 [Stress: 8, Deviation: 9, Feasibility: 2]|O3 [Stress: 5, Deviation: 5, Feasibility: 5]"

func TestParseScenariosDelimited(t *testing.T) {
	p := New(ModeDelimited)

	rec, err := p.Parse(scenarioFixture, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(rec.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(rec.Problems))
	}
	if rec.Problems[0].Title != "A" || rec.Problems[0].Description != "descA" {
		t.Fatalf("problem 0 = %+v", rec.Problems[0])
	}
	if rec.Problems[1].Title != "B" || rec.Problems[1].Description != "descB" {
		t.Fatalf("problem 1 = %+v", rec.Problems[1])
	}

	if len(rec.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(rec.Scenarios))
	}
	sc := rec.Scenarios[0]
	if sc.Title != "E1" || sc.Description != "descE1" {
		t.Fatalf("scenario = %+v", sc)
	}
	if len(sc.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(sc.Options))
	}

	wantScores := [][3]int{{2, 1, 9}, {8, 9, 2}, {5, 5, 5}}
	for i, opt := range sc.Options {
		got := [3]int{opt.Scores.Stress, opt.Scores.Deviation, opt.Scores.Feasibility}
		if got != wantScores[i] {
			t.Fatalf("option %d scores = %v, want %v", i, got, wantScores[i])
		}
	}
	if sc.Options[0].Text != "O1" {
		t.Fatalf("option 0 text = %q", sc.Options[0].Text)
	}
}

func TestParseRoundTrip(t *testing.T) {
	// Build a well-formed delimited input and verify every record survives
	// with trimmed fields.
	var probs, imps []string
	for i := 0; i < 7; i++ {
		probs = append(probs, fmt.Sprintf("  P%d  | desc %d ", i, i))
	}
	for i := 0; i < 4; i++ {
		imps = append(imps, fmt.Sprintf("I%d|improve %d", i, i))
	}
	raw := strings.Join(probs, "##") + "---" + strings.Join(imps, "##") + "---  the plan  "

	rec, err := New(ModeDelimited).Parse(raw, StageDashboard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Problems) != 7 || len(rec.Improvements) != 4 {
		t.Fatalf("got %d problems, %d improvements", len(rec.Problems), len(rec.Improvements))
	}
	for i, p := range rec.Problems {
		if p.Title != fmt.Sprintf("P%d", i) || p.Description != fmt.Sprintf("desc %d", i) {
			t.Fatalf("problem %d = %+v", i, p)
		}
	}
	if rec.RevisedPlan != "the plan" {
		t.Fatalf("revised plan = %q", rec.RevisedPlan)
	}
}

func TestParseIdempotent(t *testing.T) {
	p := New(ModeDelimited)
	a, errA := p.Parse(scenarioFixture, StageScenarios)
	b, errB := p.Parse(scenarioFixture, StageScenarios)
	if errA != nil || errB != nil {
		t.Fatalf("Parse errors: %v / %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two parses of the same input differ")
	}
}

func TestParseMissingSection(t *testing.T) {
	_, err := New(ModeDelimited).Parse("A|only problems, no separator", StageScenarios)
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructureError, got %v", err)
	}
	if se.Raw == "" {
		t.Fatal("StructureError should carry raw text")
	}
}

func TestParseDropsNoiseRecords(t *testing.T) {
	raw := "Here is your failure log:##A|descA##just chatter---E|descE|o1 [Stress: 1, Deviation: 1, Feasibility: 1]|o2 [Stress: 1, Deviation: 1, Feasibility: 1]|o3 [Stress: 1, Deviation: 1, Feasibility: 1]"
	rec, err := New(ModeDelimited).Parse(raw, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Problems) != 1 {
		t.Fatalf("expected noise dropped, got %d problems", len(rec.Problems))
	}
}

func TestParseScenarioTooFewFields(t *testing.T) {
	raw := "A|descA---E|descE|only one option"
	rec, err := New(ModeDelimited).Parse(raw, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Scenarios) != 0 {
		t.Fatalf("short scenario record should be dropped, got %d", len(rec.Scenarios))
	}
}

func TestParseOptionScoreFallback(t *testing.T) {
	raw := "A|descA---E|descE|Option 1: call the vendor early|2) stockpile parts|Option 3 - do nothing"
	rec, err := New(ModeDelimited).Parse(raw, StageScenarios)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(rec.Scenarios))
	}
	opts := rec.Scenarios[0].Options
	wantTexts := []string{"call the vendor early", "stockpile parts", "do nothing"}
	for i, want := range wantTexts {
		if opts[i].Text != want {
			t.Fatalf("option %d text = %q, want %q", i, opts[i].Text, want)
		}
		if opts[i].Scores.Stress != 0 {
			t.Fatalf("option %d should have no scores, got %+v", i, opts[i].Scores)
		}
	}
}

func TestParseFollowupDelimited(t *testing.T) {
	raw := "Draft outreach|Week 1|Write the first three emails.##broken task|no instruction---You survived worse. Ship it."
	rec, err := New(ModeDelimited).Parse(raw, StageFollowup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Tasks) != 1 {
		t.Fatalf("expected 1 task (short record dropped), got %d", len(rec.Tasks))
	}
	task := rec.Tasks[0]
	if task.Title != "Draft outreach" || task.Duration != "Week 1" || task.Instruction != "Write the first three emails." {
		t.Fatalf("task = %+v", task)
	}
	if rec.Advice != "You survived worse. Ship it." {
		t.Fatalf("advice = %q", rec.Advice)
	}
}

func TestParseUpstreamSentinel(t *testing.T) {
	for _, mode := range []ResponseMode{ModeDelimited, ModeStructured} {
		_, err := New(mode).Parse("Error: Timeline communication lost.", StageScenarios)
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("mode %s: expected UpstreamError, got %v", mode, err)
		}
		if !strings.HasPrefix(ue.Raw, "Error:") {
			t.Fatalf("sentinel text lost: %q", ue.Raw)
		}
	}
}
