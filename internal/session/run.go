package session

import (
	"log"
	"sync"

	"murphy/internal/runlog"
	"murphy/internal/timeline"
)

// #region states

// State is the run's position in the stage sequence.
type State string

const (
	StateAwaitingInput  State = "awaiting_input"
	StateMazeInProgress State = "maze_in_progress"
	StateDashboardReady State = "dashboard_ready"
	StateRefining       State = "refining"
	StateFollowupReady  State = "followup_ready"
)

// #endregion states

// #region run

// Run is the explicit state of one user session: no hidden globals, every
// operation threads through this struct. A Run's mutable state is only ever
// touched by one in-flight operation at a time, enforced by mu.
type Run struct {
	mu   sync.Mutex
	deps Deps

	id     string // session id
	planID string // store id, empty until first persisted
	userID string // store user id, empty until profile is set

	profile timeline.Profile
	input   timeline.UserInput

	// Run-scoped data, cleared on reset.
	problems    []timeline.Problem // initial failure log, pinned at finalize
	scenarios   []timeline.Scenario
	mazeIdx     int
	mazeAnswers []timeline.MazeAnswer
	versions    []timeline.Version
	currentIdx  int
	history     []timeline.ChatTurn

	state State
}

// NewRun creates a run in AwaitingInput.
func NewRun(id string, deps Deps) *Run {
	return &Run{id: id, deps: deps, state: StateAwaitingInput}
}

// #endregion run

// #region accessors

// ID returns the session id.
func (r *Run) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// PlanID returns the persisted run id, empty until finalize first syncs.
func (r *Run) PlanID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.planID
}

// State returns the current stage.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Profile returns the persistent user identity.
func (r *Run) Profile() timeline.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}

// Input returns the submitted user input.
func (r *Run) Input() timeline.UserInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}

// Problems returns the initial failure log.
func (r *Run) Problems() []timeline.Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.Problem(nil), r.problems...)
}

// Scenarios returns the maze scenarios.
func (r *Run) Scenarios() []timeline.Scenario {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.Scenario(nil), r.scenarios...)
}

// MazeAnswers returns the answers recorded so far, in scenario order.
func (r *Run) MazeAnswers() []timeline.MazeAnswer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.MazeAnswer(nil), r.mazeAnswers...)
}

// Versions returns the append-only version history.
func (r *Run) Versions() []timeline.Version {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.Version(nil), r.versions...)
}

// CurrentIndex returns the selected version index.
func (r *Run) CurrentIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentIdx
}

// CurrentVersion returns the selected version, ok=false before finalize.
func (r *Run) CurrentVersion() (timeline.Version, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.versions) == 0 {
		return timeline.Version{}, false
	}
	return r.versions[r.currentIdx], true
}

// History returns the conversation history.
func (r *Run) History() []timeline.ChatTurn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.ChatTurn(nil), r.history...)
}

// #endregion accessors

// #region profile

// SetProfile stores the persistent identity and syncs it to the store so
// runs can be namespaced per user. Store failure degrades to in-memory.
func (r *Run) SetProfile(username, about string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-selecting the same user without restating the bio keeps it, in
	// memory and in the store alike.
	if about == "" && username == r.profile.Username {
		about = r.profile.About
	}
	r.profile = timeline.Profile{Username: username, About: about}
	if r.deps.Store == nil || username == "" {
		return
	}
	id, err := r.deps.Store.UpsertUser(username, about)
	if err != nil {
		r.reportPersistence("upsert_user", err)
		return
	}
	r.userID = id
}

// #endregion profile

// #region reset

// Reset clears all run-scoped data and returns to AwaitingInput. The user
// profile survives: a reset starts a new plan for the same known user
// without re-asking who they are.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.planID = ""
	r.input = timeline.UserInput{}
	r.problems = nil
	r.scenarios = nil
	r.mazeIdx = 0
	r.mazeAnswers = nil
	r.versions = nil
	r.currentIdx = 0
	r.history = nil
	r.state = StateAwaitingInput

	r.logEvent("reset", "")
}

// #endregion reset

// #region logging

// logEvent writes a run_log row when a log database is wired. Callers hold mu.
func (r *Run) logEvent(action, detail string) {
	if r.deps.LogDB == nil {
		return
	}
	err := runlog.Record(r.deps.LogDB, runlog.Entry{
		PlanID:    r.planID,
		SessionID: r.id,
		Stage:     string(r.state),
		Action:    action,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("[SESSION] run log write failed: %v", err)
	}
}

// reportPersistence logs a store failure without unwinding the operation.
// Callers hold mu.
func (r *Run) reportPersistence(op string, err error) {
	perr := &PersistenceError{Op: op, Err: err}
	log.Printf("[SESSION] %s: %v (run continues in memory)", r.id, perr)
	r.logEvent("persist_failed", perr.Error())
}

// #endregion logging
