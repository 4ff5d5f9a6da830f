package timeline

import "time"

// #region pessimism

// Pessimism controls the severity calibration requested from the model.
type Pessimism string

const (
	PessimismOptimistic        Pessimism = "Optimistic"
	PessimismSlightlyConcerned Pessimism = "Slightly Concerned"
	PessimismRealistic         Pessimism = "Realistic"
	PessimismPessimistic       Pessimism = "Pessimistic"
	PessimismTotalChaos        Pessimism = "Total Chaos"
)

// pessimismScale maps the numeric form ("1".."5") onto the named levels.
var pessimismScale = [...]Pessimism{
	PessimismOptimistic,
	PessimismSlightlyConcerned,
	PessimismRealistic,
	PessimismPessimistic,
	PessimismTotalChaos,
}

// ParsePessimism accepts either a level name or a numeric rank "1".."5".
// Unknown input falls back to Realistic.
func ParsePessimism(s string) Pessimism {
	for _, p := range pessimismScale {
		if string(p) == s {
			return p
		}
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '5' {
		return pessimismScale[s[0]-'1']
	}
	return PessimismRealistic
}

// #endregion pessimism

// #region user-input

// UserInput is the plan submission that starts a run. Immutable once a run
// starts, except Pessimism which may be adjusted mid-refinement.
type UserInput struct {
	About     string    `json:"about"`
	Goal      string    `json:"goal"`
	Plan      string    `json:"plan"`
	Concerns  string    `json:"concerns"`
	Pessimism Pessimism `json:"pessimism"`
}

// Profile is the persistent user identity that survives a session reset.
type Profile struct {
	Username string `json:"username"`
	About    string `json:"about"`
}

// #endregion user-input

// #region problems

// Problem is one failure point reported from the failed timeline.
// Liked and Disliked are independent tri-state annotations (nil = unset);
// they are advisory and deliberately not enforced mutually exclusive.
type Problem struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Liked       *bool  `json:"liked,omitempty"`
	Disliked    *bool  `json:"disliked,omitempty"`
}

// Improvement is a strategic guideline for the revised plan. Structurally
// identical to Problem.
type Improvement struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Liked       *bool  `json:"liked,omitempty"`
	Disliked    *bool  `json:"disliked,omitempty"`
}

// #endregion problems

// #region maze

// OptionScores holds the 1-10 ratings attached to a preparation option.
// Zero values mean score extraction failed and only the text was recovered.
type OptionScores struct {
	Stress      int `json:"stress"`
	Deviation   int `json:"deviation"`
	Feasibility int `json:"feasibility"`
}

// Option is one preparation choice within a maze scenario.
type Option struct {
	Text   string       `json:"text"`
	Scores OptionScores `json:"scores"`
}

// Scenario is one choice point of the maze: an obstacle plus three
// preparation options. The user-facing "Other" free-text choice is handled
// at answer time and is never part of Options.
type Scenario struct {
	Title       string   `json:"title"`
	Description string   `json:"desc"`
	Options     []Option `json:"options"`
}

// MazeAnswer records the choice made at one scenario, in scenario order.
// Answer is either a selected option's text or user-supplied free text.
type MazeAnswer struct {
	ScenarioTitle string `json:"scenario_title"`
	Answer        string `json:"answer"`
}

// #endregion maze

// #region versions

// FollowupTask is a single actionable item on the execution checklist.
type FollowupTask struct {
	Title       string `json:"title"`
	Duration    string `json:"time"`
	Instruction string `json:"instruction"`
}

// FollowupPlan is the lazily computed execution checklist for a Version.
type FollowupPlan struct {
	Tasks  []FollowupTask `json:"tasks"`
	Advice string         `json:"advice"`
}

// Version is one snapshot in a run's refinement history. Versions are
// append-only; Followup, once set, is never recomputed for that Version.
type Version struct {
	Timestamp    time.Time     `json:"timestamp"`
	Problems     []Problem     `json:"problems"`
	Improvements []Improvement `json:"improvements"`
	RevisedPlan  string        `json:"revised_plan"`
	Notes        string        `json:"notes"`
	Followup     *FollowupPlan `json:"followup,omitempty"`
}

// #endregion versions

// #region chat

// Role tags who produced a conversation turn. Exactly two roles exist.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatTurn is one entry of the append-only conversation history passed to
// the gateway as context for the next stage.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// #endregion chat
