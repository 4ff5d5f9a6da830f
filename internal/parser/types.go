package parser

import (
	"fmt"

	"murphy/internal/timeline"
)

// #region stage

// Stage identifies which prompt/parse contract a raw response belongs to.
type Stage string

const (
	// StageScenarios is the initial generation: failure log + scenario maze.
	StageScenarios Stage = "scenarios"
	// StageDashboard is the post-maze synthesis: problems, improvements, plan.
	StageDashboard Stage = "dashboard"
	// StageRefine shares the dashboard record shape but is driven by feedback.
	StageRefine Stage = "refine"
	// StageFollowup is the task checklist plus the traveler's advice.
	StageFollowup Stage = "followup"
)

// #endregion stage

// #region response-mode

// ResponseMode selects which output contract the model was asked to honor.
// It is a configuration choice; the parser never sniffs the response.
type ResponseMode string

const (
	// ModeDelimited expects ---/##/| separated text sections.
	ModeDelimited ResponseMode = "delimited"
	// ModeStructured expects a JSON document per stage schema.
	ModeStructured ResponseMode = "structured"
)

// #endregion response-mode

// #region records

// Records is the typed result of parsing one stage's raw model output.
// Only the fields relevant to the parsed stage are populated.
type Records struct {
	Problems     []timeline.Problem
	Scenarios    []timeline.Scenario
	Improvements []timeline.Improvement
	RevisedPlan  string
	Tasks        []timeline.FollowupTask
	Advice       string
}

// #endregion records

// #region errors

// UpstreamError means the gateway itself failed after exhausting retries;
// the raw sentinel text is surfaced unchanged.
type UpstreamError struct {
	Raw string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure: %s", e.Raw)
}

// StructureError means delimited text was missing expected sections.
// Recoverable: the caller surfaces Raw for diagnostics and allows retry.
type StructureError struct {
	Raw    string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("response structure: %s", e.Reason)
}

// FormatError means a structured-mode document failed to decode even after
// repair. Recoverable, Raw carried for diagnostics.
type FormatError struct {
	Raw string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("response format: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// #endregion errors
