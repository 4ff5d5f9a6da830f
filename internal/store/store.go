package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"murphy/internal/timeline"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	about      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plans (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	goal          TEXT NOT NULL,
	original_plan TEXT NOT NULL,
	pessimism     TEXT NOT NULL,
	concerns      TEXT NOT NULL DEFAULT '',
	maze_results  TEXT NOT NULL,
	versions      TEXT NOT NULL,
	chat_history  TEXT NOT NULL,
	followup      TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_plans_user ON plans(user_id);

CREATE TABLE IF NOT EXISTS run_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id    TEXT,
	session_id TEXT NOT NULL,
	stage      TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store persists users and plans in SQLite. Each call is a single atomic
// upsert; no transaction spans the session state machine and the store.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. runlog).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region users

// UpsertUser inserts or updates a user by username and returns its id.
// An empty about leaves any stored about in place, so re-selecting a
// profile without restating the bio does not erase it.
func (s *Store) UpsertUser(username, about string) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, about, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
		 about = CASE WHEN excluded.about = '' THEN users.about ELSE excluded.about END`,
		uuid.New().String(), username, about, now,
	)
	if err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}

	var id string
	if err := s.db.QueryRow(`SELECT id FROM users WHERE username = ?`, username).Scan(&id); err != nil {
		return "", fmt.Errorf("read user id: %w", err)
	}
	return id, nil
}

// ListUsers returns all known users ordered by username.
func (s *Store) ListUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT id, username, about FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.ID, &u.Username, &u.About); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// #endregion users

// #region create-run

// CreateRun inserts the initial plan row after the maze is completed and
// returns the run id.
func (s *Store) CreateRun(userID string, input timeline.UserInput, answers []timeline.MazeAnswer, versions []timeline.Version, history []timeline.ChatTurn) (string, error) {
	mazeJSON, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("marshal maze answers: %w", err)
	}
	versionsJSON, err := json.Marshal(versions)
	if err != nil {
		return "", fmt.Errorf("marshal versions: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(
		`INSERT INTO plans (id, user_id, goal, original_plan, pessimism, concerns, maze_results, versions, chat_history, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, input.Goal, input.Plan, string(input.Pessimism), input.Concerns,
		string(mazeJSON), string(versionsJSON), string(historyJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

// #endregion create-run

// #region update-run

// UpdateRun overwrites the run's versions and chat history. Pessimism and
// followup are written only when non-nil.
func (s *Store) UpdateRun(id string, versions []timeline.Version, history []timeline.ChatTurn, pessimism *timeline.Pessimism, followup *timeline.FollowupPlan) error {
	versionsJSON, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("marshal versions: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `UPDATE plans SET versions = ?, chat_history = ?, updated_at = ?`
	args := []any{string(versionsJSON), string(historyJSON), now}

	if pessimism != nil {
		query += `, pessimism = ?`
		args = append(args, string(*pessimism))
	}
	if followup != nil {
		followupJSON, err := json.Marshal(followup)
		if err != nil {
			return fmt.Errorf("marshal followup: %w", err)
		}
		query += `, followup = ?`
		args = append(args, string(followupJSON))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update plan %s: %w", id, ErrNotFound)
	}
	return nil
}

// #endregion update-run

// #region get-run

// GetRun loads one run with its user's profile joined in. Returns
// ErrNotFound (wrapped) when the id is unknown.
func (s *Store) GetRun(id string) (RunSnapshot, error) {
	var (
		snap                                 RunSnapshot
		pessimism, concerns                  string
		mazeJSON, versionsJSON, historyJSON  string
		createdStr, updatedStr, username, ab string
	)

	err := s.db.QueryRow(
		`SELECT p.id, p.user_id, u.username, u.about, p.goal, p.original_plan, p.pessimism, p.concerns,
		        p.maze_results, p.versions, p.chat_history, p.created_at, p.updated_at
		 FROM plans p JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id,
	).Scan(&snap.ID, &snap.UserID, &username, &ab, &snap.Input.Goal, &snap.Input.Plan,
		&pessimism, &concerns, &mazeJSON, &versionsJSON, &historyJSON, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return RunSnapshot{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return RunSnapshot{}, fmt.Errorf("get run %s: %w", id, err)
	}

	snap.Username = username
	snap.Input.About = ab
	snap.Input.Concerns = concerns
	snap.Input.Pessimism = timeline.ParsePessimism(pessimism)

	if err := json.Unmarshal([]byte(mazeJSON), &snap.MazeAnswers); err != nil {
		return RunSnapshot{}, fmt.Errorf("unmarshal maze answers: %w", err)
	}
	if err := json.Unmarshal([]byte(versionsJSON), &snap.Versions); err != nil {
		return RunSnapshot{}, fmt.Errorf("unmarshal versions: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &snap.History); err != nil {
		return RunSnapshot{}, fmt.Errorf("unmarshal history: %w", err)
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)

	return snap, nil
}

// #endregion get-run

// #region list-runs

// ListRunsForUser returns summaries of a user's runs, newest first.
func (s *Store) ListRunsForUser(userID string) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, goal, pessimism, versions, updated_at FROM plans
		 WHERE user_id = ? ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum          RunSummary
			pessimism    string
			versionsJSON string
			updatedStr   string
		)
		if err := rows.Scan(&sum.ID, &sum.Goal, &pessimism, &versionsJSON, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Pessimism = timeline.ParsePessimism(pessimism)
		var versions []timeline.Version
		if err := json.Unmarshal([]byte(versionsJSON), &versions); err == nil {
			sum.VersionCount = len(versions)
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// #endregion list-runs
