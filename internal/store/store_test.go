package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"murphy/internal/timeline"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInput() timeline.UserInput {
	return timeline.UserInput{
		About:     "a test user",
		Goal:      "ship it",
		Plan:      "step one then step two",
		Concerns:  "time",
		Pessimism: timeline.PessimismPessimistic,
	}
}

func testVersion(plan string) timeline.Version {
	return timeline.Version{
		Timestamp:   time.Now().UTC(),
		Problems:    []timeline.Problem{{Title: "P", Description: "d"}},
		RevisedPlan: plan,
		Notes:       "Initial timeline generated.",
	}
}

func TestUpsertUserIdempotent(t *testing.T) {
	s := tempDB(t)

	id1, err := s.UpsertUser("kay", "about kay")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	id2, err := s.UpsertUser("kay", "updated about")
	if err != nil {
		t.Fatalf("UpsertUser again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("upsert changed id: %s vs %s", id1, id2)
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].About != "updated about" {
		t.Fatalf("about not updated: %q", users[0].About)
	}
}

func TestUpsertUserEmptyAboutKeepsStored(t *testing.T) {
	s := tempDB(t)

	id1, err := s.UpsertUser("dana", "runs a bakery")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	// Selecting the profile again without a bio must not erase it.
	id2, err := s.UpsertUser("dana", "")
	if err != nil {
		t.Fatalf("UpsertUser again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("upsert changed id: %s vs %s", id1, id2)
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].About != "runs a bakery" {
		t.Fatalf("about clobbered: %+v", users)
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := tempDB(t)
	userID, _ := s.UpsertUser("kay", "a test user")

	answers := []timeline.MazeAnswer{{ScenarioTitle: "E1", Answer: "o1"}}
	versions := []timeline.Version{testVersion("revised")}
	history := []timeline.ChatTurn{
		{Role: timeline.RoleUser, Content: "prompt"},
		{Role: timeline.RoleModel, Content: "reply"},
	}

	id, err := s.CreateRun(userID, testInput(), answers, versions, history)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	snap, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if snap.Username != "kay" || snap.Input.About != "a test user" {
		t.Fatalf("profile not joined: %+v", snap)
	}
	if snap.Input.Goal != "ship it" || snap.Input.Pessimism != timeline.PessimismPessimistic {
		t.Fatalf("input mismatch: %+v", snap.Input)
	}
	if len(snap.MazeAnswers) != 1 || snap.MazeAnswers[0].Answer != "o1" {
		t.Fatalf("maze answers mismatch: %+v", snap.MazeAnswers)
	}
	if len(snap.Versions) != 1 || snap.Versions[0].RevisedPlan != "revised" {
		t.Fatalf("versions mismatch: %+v", snap.Versions)
	}
	if len(snap.History) != 2 || snap.History[1].Role != timeline.RoleModel {
		t.Fatalf("history mismatch: %+v", snap.History)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetRun("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRun(t *testing.T) {
	s := tempDB(t)
	userID, _ := s.UpsertUser("kay", "about")
	id, _ := s.CreateRun(userID, testInput(), nil, []timeline.Version{testVersion("v0")}, nil)

	liked := true
	newVersions := []timeline.Version{testVersion("v0"), testVersion("v1")}
	newVersions[0].Problems[0].Liked = &liked
	pess := timeline.PessimismTotalChaos
	followup := &timeline.FollowupPlan{
		Tasks:  []timeline.FollowupTask{{Title: "T", Duration: "Week 1", Instruction: "do it"}},
		Advice: "hold fast",
	}

	if err := s.UpdateRun(id, newVersions, nil, &pess, followup); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	snap, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(snap.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(snap.Versions))
	}
	if snap.Versions[0].Problems[0].Liked == nil || !*snap.Versions[0].Problems[0].Liked {
		t.Fatal("liked flag lost on round trip")
	}
	if snap.Input.Pessimism != timeline.PessimismTotalChaos {
		t.Fatalf("pessimism not updated: %s", snap.Input.Pessimism)
	}
}

func TestUpdateRunUnknownID(t *testing.T) {
	s := tempDB(t)
	if err := s.UpdateRun("missing", nil, nil, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsForUser(t *testing.T) {
	s := tempDB(t)
	kay, _ := s.UpsertUser("kay", "")
	lee, _ := s.UpsertUser("lee", "")

	s.CreateRun(kay, testInput(), nil, []timeline.Version{testVersion("a")}, nil)
	s.CreateRun(kay, testInput(), nil, []timeline.Version{testVersion("b"), testVersion("c")}, nil)
	s.CreateRun(lee, testInput(), nil, nil, nil)

	runs, err := s.ListRunsForUser(kay)
	if err != nil {
		t.Fatalf("ListRunsForUser: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for kay, got %d", len(runs))
	}
	for _, r := range runs {
		if r.Goal != "ship it" {
			t.Fatalf("summary goal = %q", r.Goal)
		}
	}
}
