package replay

import (
	"context"
	"fmt"
	"strings"

	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/session"
	"murphy/internal/timeline"
)

// #region types

// StepResult captures the outcome of one replayed step.
type StepResult struct {
	Index int
	Op    string

	State      session.State
	Versions   int
	CurrentIdx int
	Err        string // empty on success

	Checked bool // an expectation was recorded for this step
	Passed  bool // meaningless unless Checked
	Detail  string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps   int
	Checked      int
	Passed       int
	Failed       int
	GatewayCalls int
}

// #endregion types

// #region gateway

// cannedGateway answers each model call with the response recorded for the
// step that triggered it.
type cannedGateway struct {
	queue []string
	calls int
}

func (g *cannedGateway) Complete(context.Context, string, string, []timeline.ChatTurn) string {
	g.calls++
	if len(g.queue) == 0 {
		return "Error: Timeline communication lost."
	}
	raw := g.queue[0]
	g.queue = g.queue[1:]
	return raw
}

// #endregion gateway

// #region replay

// Replay drives a fresh in-memory run through the fixture's steps, feeding
// each recorded model output back through the configured parser. Returns
// one result per step; an unknown op aborts with an error.
func Replay(f *Fixture) ([]StepResult, Summary, error) {
	mode := parser.ModeDelimited
	if f.ResponseMode == "structured" {
		mode = parser.ModeStructured
	}
	gw := &cannedGateway{}
	run := session.NewRun("replay", session.Deps{
		Gateway: gw,
		Parser:  parser.New(mode),
		Builder: prompt.NewBuilder(mode),
	})

	ctx := context.Background()
	results := make([]StepResult, 0, len(f.Steps))

	for i, step := range f.Steps {
		if step.Response != "" {
			gw.queue = append(gw.queue, step.Response)
		}

		var err error
		switch step.Op {
		case "generate":
			err = run.SubmitInput(ctx, f.Input.ToUserInput())
		case "answer":
			err = run.SubmitMazeAnswer(step.Answer)
		case "finalize":
			err = run.Finalize(ctx)
		case "refine":
			var pess *timeline.Pessimism
			if step.Pessimism != "" {
				p := timeline.ParsePessimism(step.Pessimism)
				pess = &p
			}
			err = run.Refine(ctx, step.Feedback, pess)
		case "followup":
			_, err = run.EnsureFollowup(ctx)
		case "select_version":
			err = run.SetCurrentVersion(step.Index)
		case "reset":
			run.Reset()
		default:
			return results, summarize(results, gw.calls), fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}

		res := StepResult{
			Index:      i,
			Op:         step.Op,
			State:      run.State(),
			Versions:   len(run.Versions()),
			CurrentIdx: run.CurrentIndex(),
		}
		if err != nil {
			res.Err = err.Error()
		}
		check(&res, step.Expect)
		results = append(results, res)
	}

	return results, summarize(results, gw.calls), nil
}

// check verifies a step result against its recorded expectation.
func check(res *StepResult, want *Expectation) {
	if want == nil {
		return
	}
	res.Checked = true
	res.Passed = true

	if want.State != "" && string(res.State) != want.State {
		res.Passed = false
		res.Detail = fmt.Sprintf("state %s, want %s", res.State, want.State)
		return
	}
	if want.Versions != 0 && res.Versions != want.Versions {
		res.Passed = false
		res.Detail = fmt.Sprintf("%d versions, want %d", res.Versions, want.Versions)
		return
	}
	switch {
	case want.Error == "" && res.Err != "":
		res.Passed = false
		res.Detail = fmt.Sprintf("unexpected error: %s", res.Err)
	case want.Error != "" && !strings.Contains(res.Err, want.Error):
		res.Passed = false
		res.Detail = fmt.Sprintf("error %q, want one containing %q", res.Err, want.Error)
	}
}

func summarize(results []StepResult, calls int) Summary {
	s := Summary{TotalSteps: len(results), GatewayCalls: calls}
	for _, r := range results {
		if !r.Checked {
			continue
		}
		s.Checked++
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// #endregion replay
