package store

import (
	"errors"
	"time"

	"murphy/internal/timeline"
)

// ErrNotFound is returned by GetRun when no plan row matches the id.
var ErrNotFound = errors.New("run not found")

// #region records

// UserRecord is one row of the users table.
type UserRecord struct {
	ID       string
	Username string
	About    string
}

// RunSnapshot is the full persisted state of one run, enough to repopulate
// a session state machine.
type RunSnapshot struct {
	ID          string
	UserID      string
	Username    string
	Input       timeline.UserInput
	MazeAnswers []timeline.MazeAnswer
	Versions    []timeline.Version
	History     []timeline.ChatTurn
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RunSummary is the listing row shown when a user picks a run to reload.
type RunSummary struct {
	ID           string
	Goal         string
	Pessimism    timeline.Pessimism
	VersionCount int
	UpdatedAt    time.Time
}

// #endregion records
