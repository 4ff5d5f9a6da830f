package session

import (
	"context"
	"strings"

	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/timeline"
)

// #region input

// SubmitInput validates the plan description, generates the failure log and
// the branching scenarios, and moves the run into the maze. It is callable
// from any state: resubmitting starts the timeline over. On any error the
// run is left exactly as it was.
func (r *Run) SubmitInput(ctx context.Context, input timeline.UserInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	input.Goal = strings.TrimSpace(input.Goal)
	input.Plan = strings.TrimSpace(input.Plan)
	input.About = strings.TrimSpace(input.About)
	input.Concerns = strings.TrimSpace(input.Concerns)
	if input.Goal == "" {
		return &ValidationError{Reason: "goal is required"}
	}
	if input.Plan == "" {
		return &ValidationError{Reason: "plan is required"}
	}
	if input.About == "" {
		input.About = r.profile.About
	}

	system, user := r.deps.Builder.Build(parser.StageScenarios, input, prompt.Context{})
	raw := r.deps.Gateway.Complete(ctx, system, user, nil)
	recs, err := r.deps.Parser.Parse(raw, parser.StageScenarios)
	if err != nil {
		return err
	}

	r.input = input
	r.planID = ""
	r.problems = recs.Problems
	r.scenarios = recs.Scenarios
	r.mazeIdx = 0
	r.mazeAnswers = nil
	r.versions = nil
	r.currentIdx = 0
	r.history = []timeline.ChatTurn{
		{Role: timeline.RoleUser, Content: user},
		{Role: timeline.RoleModel, Content: raw},
	}
	r.state = StateMazeInProgress

	r.logEvent("transition", "scenarios generated")
	return nil
}

// #endregion input

// #region maze

// CurrentMazeNode returns the scenario awaiting an answer. ok=false means
// every scenario has been answered and the run is ready to finalize.
func (r *Run) CurrentMazeNode() (timeline.Scenario, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateMazeInProgress {
		return timeline.Scenario{}, false, &PreconditionError{Op: "maze node", Reason: "no maze in progress"}
	}
	if r.mazeIdx >= len(r.scenarios) {
		return timeline.Scenario{}, false, nil
	}
	return r.scenarios[r.mazeIdx], true, nil
}

// SubmitMazeAnswer records the answer for the current scenario and advances
// the cursor. Any text is accepted, including free-form answers that match
// none of the offered options.
func (r *Run) SubmitMazeAnswer(choice string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateMazeInProgress {
		return &PreconditionError{Op: "maze answer", Reason: "no maze in progress"}
	}
	if r.mazeIdx >= len(r.scenarios) {
		return &PreconditionError{Op: "maze answer", Reason: "maze already complete"}
	}
	r.mazeAnswers = append(r.mazeAnswers, timeline.MazeAnswer{
		ScenarioTitle: r.scenarios[r.mazeIdx].Title,
		Answer:        choice,
	})
	r.mazeIdx++
	return nil
}

// MazeComplete reports whether every scenario has an answer.
func (r *Run) MazeComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateMazeInProgress && r.mazeIdx >= len(r.scenarios)
}

// #endregion maze

// #region finalize

// Finalize synthesizes the dashboard from the maze answers: version zero of
// the plan, carrying the failure log pinned at generation time plus the
// model's improvements and revised plan. On success the run is persisted;
// a store failure is reported and the run continues in memory.
func (r *Run) Finalize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateMazeInProgress {
		return &PreconditionError{Op: "finalize", Reason: "no maze in progress"}
	}
	if r.mazeIdx < len(r.scenarios) {
		return &PreconditionError{Op: "finalize", Reason: "maze not complete"}
	}

	system, user := r.deps.Builder.Build(parser.StageDashboard, r.input, prompt.Context{
		MazeAnswers: r.mazeAnswers,
	})
	raw := r.deps.Gateway.Complete(ctx, system, user, r.history)
	recs, err := r.deps.Parser.Parse(raw, parser.StageDashboard)
	if err != nil {
		return err
	}

	r.versions = []timeline.Version{{
		Timestamp:    r.deps.now(),
		Problems:     r.problems,
		Improvements: recs.Improvements,
		RevisedPlan:  recs.RevisedPlan,
		Notes:        "Initial timeline generated.",
	}}
	r.currentIdx = 0
	r.history = append(r.history,
		timeline.ChatTurn{Role: timeline.RoleUser, Content: user},
		timeline.ChatTurn{Role: timeline.RoleModel, Content: raw},
	)
	r.state = StateDashboardReady
	r.logEvent("transition", "dashboard synthesized")

	if r.deps.Store != nil && r.userID != "" {
		id, err := r.deps.Store.CreateRun(r.userID, r.input, r.mazeAnswers, r.versions, r.history)
		if err != nil {
			r.reportPersistence("create_run", err)
		} else {
			r.planID = id
		}
	}
	return nil
}

// #endregion finalize
