package session

import (
	"context"
	"database/sql"
	"time"

	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/retrieval"
	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region interfaces

// Gateway is the text-completion service surface the state machine needs.
// Complete never fails; exhaustion yields a sentinel-prefixed string.
type Gateway interface {
	Complete(ctx context.Context, system, user string, history []timeline.ChatTurn) string
}

// VersionStore is the narrow save/load contract against durable storage.
type VersionStore interface {
	UpsertUser(username, about string) (string, error)
	CreateRun(userID string, input timeline.UserInput, answers []timeline.MazeAnswer, versions []timeline.Version, history []timeline.ChatTurn) (string, error)
	UpdateRun(id string, versions []timeline.Version, history []timeline.ChatTurn, pessimism *timeline.Pessimism, followup *timeline.FollowupPlan) error
	GetRun(id string) (store.RunSnapshot, error)
	ListRunsForUser(userID string) ([]store.RunSummary, error)
}

// #endregion interfaces

// #region deps

// Deps bundles the collaborators of a run. Store, Retriever, and LogDB may
// be nil: the run then operates purely in memory.
type Deps struct {
	Gateway   Gateway
	Parser    *parser.Parser
	Builder   *prompt.Builder
	Store     VersionStore
	Retriever retrieval.Retriever
	LogDB     *sql.DB
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// #endregion deps
