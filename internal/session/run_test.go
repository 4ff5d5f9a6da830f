package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region fixtures

const scenariosRaw = `Venue falls through|The booked venue cancels two days out##Budget overrun|Costs exceed the estimate by forty percent
---
Vendor no-show|The caterer does not arrive on the morning|Call the backup caterer [Stress: 4, Deviation: 3, Feasibility: 8]|Cook everything yourself [Stress: 8, Deviation: 7, Feasibility: 3]|Postpone the dinner [Stress: 6, Deviation: 9, Feasibility: 9]`

const dashboardRaw = `Stale problem|Should never surface on version zero
---
Book a backup venue|A signed fallback contract removes the single point of failure##Pad the budget|Add a twenty percent contingency line
---
Revised plan: confirm the venue in writing, sign a backup, pad the budget.`

const refineRaw = `Weather turns|An outdoor reception has no rain cover
---
Rent a marquee|Covers the weather risk for a known cost
---
Revised plan v2: move the reception under a marquee.`

const followupRaw = `Confirm the caterer|15 minutes|Call and confirm the final headcount##Sign the backup venue|1 hour|Get the fallback contract countersigned
---
Recheck every assumption the week before.`

// #endregion fixtures

// #region fakes

// scriptGateway replays canned responses in order and records what it was
// asked. An exhausted script answers with the upstream sentinel.
type scriptGateway struct {
	responses []string
	calls     int
	lastUser  string
	histLens  []int
}

func (g *scriptGateway) Complete(_ context.Context, _, user string, history []timeline.ChatTurn) string {
	g.calls++
	g.lastUser = user
	g.histLens = append(g.histLens, len(history))
	if len(g.responses) == 0 {
		return "Error: Timeline communication lost."
	}
	raw := g.responses[0]
	g.responses = g.responses[1:]
	return raw
}

// failStore accepts users but fails every run operation.
type failStore struct{}

func (failStore) UpsertUser(string, string) (string, error) { return "u-fail", nil }
func (failStore) CreateRun(string, timeline.UserInput, []timeline.MazeAnswer, []timeline.Version, []timeline.ChatTurn) (string, error) {
	return "", errors.New("disk full")
}
func (failStore) UpdateRun(string, []timeline.Version, []timeline.ChatTurn, *timeline.Pessimism, *timeline.FollowupPlan) error {
	return errors.New("disk full")
}
func (failStore) GetRun(string) (store.RunSnapshot, error) {
	return store.RunSnapshot{}, errors.New("disk full")
}
func (failStore) ListRunsForUser(string) ([]store.RunSummary, error) {
	return nil, errors.New("disk full")
}

// #endregion fakes

// #region helpers

func newTestRun(t *testing.T, gw Gateway) *Run {
	t.Helper()
	return NewRun("sess-test", Deps{
		Gateway: gw,
		Parser:  parser.New(parser.ModeDelimited),
		Builder: prompt.NewBuilder(parser.ModeDelimited),
		Now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func testInput() timeline.UserInput {
	return timeline.UserInput{
		About:     "first-time event organizer",
		Goal:      "host a rehearsal dinner for 40 guests",
		Plan:      "book the venue, hire a caterer, send invites two weeks out",
		Pessimism: timeline.PessimismRealistic,
	}
}

// driveToDashboard walks a fresh run through input, maze, and finalize.
func driveToDashboard(t *testing.T, r *Run) {
	t.Helper()
	if err := r.SubmitInput(context.Background(), testInput()); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	for {
		_, ok, err := r.CurrentMazeNode()
		if err != nil {
			t.Fatalf("CurrentMazeNode: %v", err)
		}
		if !ok {
			break
		}
		if err := r.SubmitMazeAnswer("Call the backup caterer"); err != nil {
			t.Fatalf("SubmitMazeAnswer: %v", err)
		}
	}
	if err := r.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

// #endregion helpers

// #region generation

func TestSubmitInputGeneratesMaze(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw}}
	r := newTestRun(t, gw)

	if err := r.SubmitInput(context.Background(), testInput()); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if got := r.State(); got != StateMazeInProgress {
		t.Fatalf("state = %s, want %s", got, StateMazeInProgress)
	}
	if got := len(r.Problems()); got != 2 {
		t.Fatalf("problems = %d, want 2", got)
	}
	if got := len(r.Scenarios()); got != 1 {
		t.Fatalf("scenarios = %d, want 1", got)
	}
	if got := len(r.History()); got != 2 {
		t.Fatalf("history = %d turns, want 2", got)
	}
	if gw.histLens[0] != 0 {
		t.Fatalf("first call carried history of %d turns, want 0", gw.histLens[0])
	}
}

func TestSubmitInputValidation(t *testing.T) {
	gw := &scriptGateway{}
	r := newTestRun(t, gw)

	err := r.SubmitInput(context.Background(), timeline.UserInput{Goal: "  ", Plan: "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called %d times on invalid input", gw.calls)
	}
	if got := r.State(); got != StateAwaitingInput {
		t.Fatalf("state = %s after rejected input", got)
	}
}

func TestSubmitInputUpstreamFailureLeavesStateUnchanged(t *testing.T) {
	gw := &scriptGateway{} // empty script answers with the sentinel
	r := newTestRun(t, gw)

	err := r.SubmitInput(context.Background(), testInput())
	var uerr *parser.UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if got := r.State(); got != StateAwaitingInput {
		t.Fatalf("state = %s, want %s", got, StateAwaitingInput)
	}
}

func TestResubmitInputRestartsRun(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, scenariosRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	if err := r.SubmitInput(context.Background(), testInput()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := len(r.Versions()); got != 0 {
		t.Fatalf("versions = %d after restart, want 0", got)
	}
	if got := len(r.MazeAnswers()); got != 0 {
		t.Fatalf("answers = %d after restart, want 0", got)
	}
	if got := r.State(); got != StateMazeInProgress {
		t.Fatalf("state = %s, want %s", got, StateMazeInProgress)
	}
}

// #endregion generation

// #region maze

func TestMazeAnswerOutsideMaze(t *testing.T) {
	r := newTestRun(t, &scriptGateway{})

	err := r.SubmitMazeAnswer("anything")
	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
}

func TestMazeAcceptsFreeFormAnswer(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw}}
	r := newTestRun(t, gw)
	if err := r.SubmitInput(context.Background(), testInput()); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	if err := r.SubmitMazeAnswer("I would bribe the weather gods"); err != nil {
		t.Fatalf("free-form answer rejected: %v", err)
	}
	answers := r.MazeAnswers()
	if len(answers) != 1 || answers[0].ScenarioTitle != "Vendor no-show" {
		t.Fatalf("answers = %+v", answers)
	}
	if err := r.SubmitMazeAnswer("again"); err == nil {
		t.Fatal("answer past the last scenario should fail")
	}
}

func TestFinalizeBeforeMazeComplete(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw}}
	r := newTestRun(t, gw)
	if err := r.SubmitInput(context.Background(), testInput()); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	err := r.Finalize(context.Background())
	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1 (scenarios only)", gw.calls)
	}
}

// #endregion maze

// #region finalize

func TestFinalizePinsInitialProblems(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	versions := r.Versions()
	if len(versions) != 1 {
		t.Fatalf("versions = %d, want 1", len(versions))
	}
	v := versions[0]
	// Version zero carries the failure log from generation, not whatever the
	// dashboard response happened to restate.
	if len(v.Problems) != 2 || v.Problems[0].Title != "Venue falls through" {
		t.Fatalf("problems = %+v, want the initial failure log", v.Problems)
	}
	if len(v.Improvements) != 2 {
		t.Fatalf("improvements = %d, want 2", len(v.Improvements))
	}
	if v.Notes != "Initial timeline generated." {
		t.Fatalf("notes = %q", v.Notes)
	}
	if r.State() != StateDashboardReady {
		t.Fatalf("state = %s", r.State())
	}
	if gw.histLens[1] != 2 {
		t.Fatalf("finalize carried history of %d turns, want 2", gw.histLens[1])
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := NewRun("sess-persist", Deps{
		Gateway: gw,
		Parser:  parser.New(parser.ModeDelimited),
		Builder: prompt.NewBuilder(parser.ModeDelimited),
		Store:   failStore{},
	})
	r.SetProfile("dana", "organizer")
	driveToDashboard(t, r)

	if got := r.PlanID(); got != "" {
		t.Fatalf("plan id = %q after failed create, want empty", got)
	}
	if err := r.Refine(context.Background(), "more weather detail", nil); err != nil {
		t.Fatalf("Refine after store failure: %v", err)
	}
	if got := len(r.Versions()); got != 2 {
		t.Fatalf("versions = %d, want 2", got)
	}
}

// #endregion finalize

// #region refine

func TestRefineAppendsAndReplacesProblems(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	if err := r.Refine(context.Background(), "worry about the weather", nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	versions := r.Versions()
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(versions))
	}
	if got := r.CurrentIndex(); got != 1 {
		t.Fatalf("current index = %d, want 1", got)
	}
	v := versions[1]
	if len(v.Problems) != 1 || v.Problems[0].Title != "Weather turns" {
		t.Fatalf("refined problems = %+v, want the replacement set", v.Problems)
	}
	if v.Notes != "Refinement: worry about the weather..." {
		t.Fatalf("notes = %q", v.Notes)
	}
	if len(versions[0].Problems) != 2 {
		t.Fatalf("version zero mutated: %+v", versions[0].Problems)
	}
}

func TestRefineNoOp(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	if err := r.Refine(context.Background(), "   ", nil); err != nil {
		t.Fatalf("no-op refine errored: %v", err)
	}
	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want 2 (no refine call)", gw.calls)
	}
	if got := len(r.Versions()); got != 1 {
		t.Fatalf("versions = %d, want 1", got)
	}
}

func TestRefineUpstreamFailureAppendsNothing(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	err := r.Refine(context.Background(), "anything", nil)
	var uerr *parser.UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if got := len(r.Versions()); got != 1 {
		t.Fatalf("versions = %d after failed refine, want 1", got)
	}
	if got := r.CurrentIndex(); got != 0 {
		t.Fatalf("current index = %d, want 0", got)
	}
}

func TestRefineNotesTruncation(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	long := strings.Repeat("x", 80)
	if err := r.Refine(context.Background(), long, nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	v, _ := r.CurrentVersion()
	want := "Refinement: " + strings.Repeat("x", 50) + "..."
	if v.Notes != want {
		t.Fatalf("notes = %q, want %q", v.Notes, want)
	}
}

func TestRefineNotesRecordPessimismChange(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	chaos := timeline.PessimismTotalChaos
	if err := r.Refine(context.Background(), "go darker", &chaos); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	v, _ := r.CurrentVersion()
	want := "Refinement: go darker... Pessimism changed from Realistic to Total Chaos."
	if v.Notes != want {
		t.Fatalf("notes = %q, want %q", v.Notes, want)
	}
}

func TestRefineNotesTruncateOnRuneBoundary(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	long := strings.Repeat("ü", 60)
	if err := r.Refine(context.Background(), long, nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	v, _ := r.CurrentVersion()
	want := "Refinement: " + strings.Repeat("ü", 50) + "..."
	if v.Notes != want {
		t.Fatalf("notes = %q, want %q", v.Notes, want)
	}
	if !utf8.ValidString(v.Notes) {
		t.Fatalf("notes are not valid UTF-8: %q", v.Notes)
	}
}

func TestRefinePessimismOverrideAloneIsNoOp(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	// The override sticks even though nothing else triggers a model call.
	chaos := timeline.PessimismTotalChaos
	if err := r.Refine(context.Background(), "", &chaos); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if got := r.Input().Pessimism; got != timeline.PessimismTotalChaos {
		t.Fatalf("pessimism = %s, want %s", got, timeline.PessimismTotalChaos)
	}
	if got := len(r.Versions()); got != 1 {
		t.Fatalf("versions = %d, want 1 (override alone is a no-op)", got)
	}
	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want 2", gw.calls)
	}

	// Paired with feedback it shapes the next refinement.
	if err := r.Refine(context.Background(), "go darker", &chaos); err != nil {
		t.Fatalf("Refine with feedback: %v", err)
	}
	if got := len(r.Versions()); got != 2 {
		t.Fatalf("versions = %d, want 2", got)
	}
}

func TestRefineIncludesBinaryFlags(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	if err := r.SetBinaryFeedback(0, "problem", "liked", 0, true); err != nil {
		t.Fatalf("SetBinaryFeedback: %v", err)
	}
	if err := r.SetBinaryFeedback(0, "improvement", "disliked", 1, true); err != nil {
		t.Fatalf("SetBinaryFeedback: %v", err)
	}
	if err := r.Refine(context.Background(), "", nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if !strings.Contains(gw.lastUser, "Venue falls through") {
		t.Fatalf("refine prompt missing liked problem:\n%s", gw.lastUser)
	}
	if !strings.Contains(gw.lastUser, "Pad the budget") {
		t.Fatalf("refine prompt missing disliked improvement:\n%s", gw.lastUser)
	}
	v, _ := r.CurrentVersion()
	if v.Notes != "Refinement: feedback flags applied." {
		t.Fatalf("notes = %q", v.Notes)
	}
}

func TestBinaryFlagsAreIndependent(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	// Liked and disliked are separate annotations; setting both on the same
	// item is allowed and both survive.
	if err := r.SetBinaryFeedback(0, "problem", "liked", 0, true); err != nil {
		t.Fatalf("liked: %v", err)
	}
	if err := r.SetBinaryFeedback(0, "problem", "disliked", 0, true); err != nil {
		t.Fatalf("disliked: %v", err)
	}
	p := r.Versions()[0].Problems[0]
	if p.Liked == nil || !*p.Liked || p.Disliked == nil || !*p.Disliked {
		t.Fatalf("flags = liked %v disliked %v, want both set", p.Liked, p.Disliked)
	}
}

func TestSetBinaryFeedbackBounds(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	var perr *PreconditionError
	if err := r.SetBinaryFeedback(5, "problem", "liked", 0, true); !errors.As(err, &perr) {
		t.Fatalf("bad version: %v", err)
	}
	if err := r.SetBinaryFeedback(0, "problem", "liked", 99, true); !errors.As(err, &perr) {
		t.Fatalf("bad item: %v", err)
	}
	if err := r.SetBinaryFeedback(0, "verdict", "liked", 0, true); !errors.As(err, &perr) {
		t.Fatalf("bad category: %v", err)
	}
}

// #endregion refine

// #region versions

func TestSetCurrentVersion(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, refineRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)
	if err := r.Refine(context.Background(), "change it", nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}

	if err := r.SetCurrentVersion(0); err != nil {
		t.Fatalf("SetCurrentVersion: %v", err)
	}
	v, ok := r.CurrentVersion()
	if !ok || v.Notes != "Initial timeline generated." {
		t.Fatalf("current version = %+v", v)
	}
	var perr *PreconditionError
	if err := r.SetCurrentVersion(7); !errors.As(err, &perr) {
		t.Fatalf("out of range: %v", err)
	}
	if got := len(r.Versions()); got != 2 {
		t.Fatalf("selection changed version count: %d", got)
	}
}

// #endregion versions

// #region followup

func TestFollowupCachedPerVersion(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, followupRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	first, err := r.EnsureFollowup(context.Background())
	if err != nil {
		t.Fatalf("EnsureFollowup: %v", err)
	}
	if len(first.Tasks) != 2 || first.Advice == "" {
		t.Fatalf("followup = %+v", first)
	}
	callsAfterFirst := gw.calls

	second, err := r.EnsureFollowup(context.Background())
	if err != nil {
		t.Fatalf("EnsureFollowup (cached): %v", err)
	}
	if gw.calls != callsAfterFirst {
		t.Fatalf("cached followup hit the gateway: %d -> %d calls", callsAfterFirst, gw.calls)
	}
	if second != first {
		t.Fatal("cached followup is a different object")
	}
	if r.State() != StateFollowupReady {
		t.Fatalf("state = %s", r.State())
	}
}

func TestFollowupRegeneratedAfterRefine(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw, followupRaw, refineRaw, followupRaw}}
	r := newTestRun(t, gw)
	driveToDashboard(t, r)

	if _, err := r.EnsureFollowup(context.Background()); err != nil {
		t.Fatalf("EnsureFollowup: %v", err)
	}
	if err := r.Refine(context.Background(), "new angle", nil); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	calls := gw.calls
	if _, err := r.EnsureFollowup(context.Background()); err != nil {
		t.Fatalf("EnsureFollowup after refine: %v", err)
	}
	if gw.calls != calls+1 {
		t.Fatalf("new version should need a fresh followup call: %d -> %d", calls, gw.calls)
	}
}

func TestFollowupBeforeDashboard(t *testing.T) {
	r := newTestRun(t, &scriptGateway{})
	_, err := r.EnsureFollowup(context.Background())
	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
}

// #endregion followup

// #region reset

func TestResetPreservesProfile(t *testing.T) {
	gw := &scriptGateway{responses: []string{scenariosRaw, dashboardRaw}}
	r := newTestRun(t, gw)
	r.SetProfile("dana", "organizes two events a year")
	driveToDashboard(t, r)

	r.Reset()

	if got := r.State(); got != StateAwaitingInput {
		t.Fatalf("state = %s, want %s", got, StateAwaitingInput)
	}
	if got := len(r.Versions()); got != 0 {
		t.Fatalf("versions = %d after reset", got)
	}
	if got := len(r.MazeAnswers()); got != 0 {
		t.Fatalf("answers = %d after reset", got)
	}
	if got := len(r.History()); got != 0 {
		t.Fatalf("history = %d after reset", got)
	}
	p := r.Profile()
	if p.Username != "dana" || p.About != "organizes two events a year" {
		t.Fatalf("profile lost on reset: %+v", p)
	}
}

func TestSetProfileEmptyAboutKeepsBio(t *testing.T) {
	gw := &scriptGateway{}
	r := newTestRun(t, gw)
	r.SetProfile("dana", "organizes two events a year")
	r.SetProfile("dana", "")

	if p := r.Profile(); p.About != "organizes two events a year" {
		t.Fatalf("about lost on re-select: %+v", p)
	}

	// A different user starts from a blank bio.
	r.SetProfile("lee", "")
	if p := r.Profile(); p.Username != "lee" || p.About != "" {
		t.Fatalf("profile = %+v, want lee with empty about", p)
	}
}

// #endregion reset

// #region load

func TestLoadRunResumesWithoutModelCall(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewStore(filepath.Join(dir, "murphy.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	userID, err := st.UpsertUser("dana", "organizer")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	versions := []timeline.Version{{
		Timestamp:   time.Now().UTC(),
		Problems:    []timeline.Problem{{Title: "Venue falls through", Description: "cancelled"}},
		RevisedPlan: "revised",
		Notes:       "Initial timeline generated.",
		Followup:    &timeline.FollowupPlan{Advice: "breathe"},
	}}
	history := []timeline.ChatTurn{
		{Role: timeline.RoleUser, Content: "prompt"},
		{Role: timeline.RoleModel, Content: "reply"},
	}
	answers := []timeline.MazeAnswer{{ScenarioTitle: "Vendor no-show", Answer: "backup"}}
	planID, err := st.CreateRun(userID, testInput(), answers, versions, history)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	gw := &scriptGateway{}
	r := NewRun("sess-load", Deps{
		Gateway: gw,
		Parser:  parser.New(parser.ModeDelimited),
		Builder: prompt.NewBuilder(parser.ModeDelimited),
		Store:   st,
	})
	if err := r.LoadRun(planID); err != nil {
		t.Fatalf("LoadRun: %v", err)
	}

	if gw.calls != 0 {
		t.Fatalf("load hit the gateway %d times", gw.calls)
	}
	if got := r.State(); got != StateFollowupReady {
		t.Fatalf("state = %s, want %s (followup was persisted)", got, StateFollowupReady)
	}
	if got := r.PlanID(); got != planID {
		t.Fatalf("plan id = %q, want %q", got, planID)
	}
	if got := len(r.MazeAnswers()); got != 1 {
		t.Fatalf("answers = %d, want 1", got)
	}
	if got := len(r.History()); got != 2 {
		t.Fatalf("history = %d, want 2", got)
	}
	if p := r.Profile(); p.Username != "dana" {
		t.Fatalf("username = %q", p.Username)
	}
}

func TestLoadRunUnknownID(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewStore(filepath.Join(dir, "murphy.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	r := NewRun("sess-load", Deps{
		Gateway: &scriptGateway{},
		Parser:  parser.New(parser.ModeDelimited),
		Builder: prompt.NewBuilder(parser.ModeDelimited),
		Store:   st,
	})
	err = r.LoadRun("no-such-plan")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want wrapped ErrNotFound", err)
	}
}

// #endregion load
