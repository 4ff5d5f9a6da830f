package prompt

import (
	"fmt"
	"strings"

	"murphy/internal/parser"
	"murphy/internal/timeline"
)

// #region context

// Context carries the accumulated run data a stage prompt may draw on.
// All fields are optional; stages use what they need.
type Context struct {
	MazeAnswers []timeline.MazeAnswer

	// Refinement inputs.
	Feedback             string
	LikedProblems        []string
	DislikedProblems     []string
	LikedImprovements    []string
	DislikedImprovements []string

	// BasePlan is the currently selected Version's revised plan, used by
	// refinement and followup stages.
	BasePlan string

	// SimilarPlans holds retrieved summaries of the user's past plans.
	SimilarPlans []string
}

// #endregion context

// #region builder

// Builder assembles system/user prompt pairs per stage. Pure given its
// inputs; it performs no I/O.
type Builder struct {
	mode parser.ResponseMode
}

// NewBuilder creates a builder emitting the output contract for mode.
func NewBuilder(mode parser.ResponseMode) *Builder {
	return &Builder{mode: mode}
}

// Build returns the system and user prompts for a stage.
func (b *Builder) Build(stage parser.Stage, input timeline.UserInput, ctx Context) (string, string) {
	switch stage {
	case parser.StageScenarios:
		return b.buildScenarios(input)
	case parser.StageDashboard:
		return b.buildDashboard(input, ctx)
	case parser.StageRefine:
		return b.buildRefine(input, ctx)
	case parser.StageFollowup:
		return b.buildFollowup(input, ctx)
	}
	return "", ""
}

// #endregion builder

// #region stages

func (b *Builder) buildScenarios(input timeline.UserInput) (string, string) {
	system := scenarioSystemDelimited
	if b.mode == parser.ModeStructured {
		system = scenarioSystemStructured
	}
	return fill(system, input, ""), fill(scenarioUser, input, "")
}

func (b *Builder) buildDashboard(input timeline.UserInput, ctx Context) (string, string) {
	system := dashboardSystemDelimited
	if b.mode == parser.ModeStructured {
		system = dashboardSystemStructured
	}
	user := strings.ReplaceAll(fill(dashboardUser, input, ""), "{maze}", formatMazeAnswers(ctx.MazeAnswers))
	return fill(system, input, ""), user
}

func (b *Builder) buildRefine(input timeline.UserInput, ctx Context) (string, string) {
	system := refineSystemDelimited
	if b.mode == parser.ModeStructured {
		system = refineSystemStructured
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Feedback: %s\n", ctx.Feedback)
	writeFlagged(&sb, "Problems the user liked", ctx.LikedProblems)
	writeFlagged(&sb, "Problems the user disliked", ctx.DislikedProblems)
	writeFlagged(&sb, "Guidelines the user liked", ctx.LikedImprovements)
	writeFlagged(&sb, "Guidelines the user disliked", ctx.DislikedImprovements)
	fmt.Fprintf(&sb, "Current Revised Plan: %s\n", ctx.BasePlan)
	fmt.Fprintf(&sb, "Decisions made during the Maze: %s\n", formatMazeAnswers(ctx.MazeAnswers))
	fmt.Fprintf(&sb, "User Context: %s", input.About)
	if len(ctx.SimilarPlans) > 0 {
		sb.WriteString("\nSummaries of this user's past plans, for additional context:")
		for _, s := range ctx.SimilarPlans {
			fmt.Fprintf(&sb, "\n- %s", s)
		}
	}

	return fill(system, input, ctx.BasePlan), sb.String()
}

func (b *Builder) buildFollowup(input timeline.UserInput, ctx Context) (string, string) {
	system := followupSystemDelimited
	if b.mode == parser.ModeStructured {
		system = followupSystemStructured
	}
	return fill(system, input, ctx.BasePlan), fill(followupUser, input, ctx.BasePlan)
}

// #endregion stages

// #region helpers

// fill substitutes the named placeholders. planOverride, when non-empty,
// replaces {plan} instead of the original submitted plan.
func fill(tmpl string, input timeline.UserInput, planOverride string) string {
	plan := input.Plan
	if planOverride != "" {
		plan = planOverride
	}
	return strings.NewReplacer(
		"{pessimism}", string(input.Pessimism),
		"{user_info}", input.About,
		"{goal}", input.Goal,
		"{plan}", plan,
		"{concerns}", input.Concerns,
	).Replace(tmpl)
}

func formatMazeAnswers(answers []timeline.MazeAnswer) string {
	if len(answers) == 0 {
		return "none recorded"
	}
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = fmt.Sprintf("%s -> %s", a.ScenarioTitle, a.Answer)
	}
	return strings.Join(parts, "; ")
}

func writeFlagged(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, strings.Join(items, "; "))
}

// #endregion helpers
