// Package runlog records stage transitions and persistence outcomes in the
// run_log table, giving each plan a durable trail of how it was produced.
package runlog

import (
	"database/sql"
	"fmt"
	"time"
)

// #region entry

// Entry is a single row in the run_log table.
type Entry struct {
	PlanID    string // empty until the run is first persisted
	SessionID string
	Stage     string
	Action    string // "transition" | "rejected" | "persist_failed" | "reset" | "loaded"
	Detail    string
	CreatedAt time.Time
}

// #endregion entry

// #region record

// Record writes an entry to the run_log table.
func Record(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (plan_id, session_id, stage, action, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.PlanID),
		entry.SessionID,
		entry.Stage,
		entry.Action,
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run log: %w", err)
	}
	return nil
}

// #endregion record

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
