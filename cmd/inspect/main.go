package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region main

func main() {
	dbPath := flag.String("db", "murphy.db", "path to murphy.db")
	plan := flag.String("plan", "", "show single plan detail")
	logTail := flag.Int("log", 0, "with --plan, also show the last N run log rows")
	jsonOut := flag.Bool("json", false, "output as JSON instead of tables")
	flag.Parse()

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *plan != "" {
		err = runDetailMode(st, *plan, *logTail, *jsonOut)
	} else {
		err = runListMode(st, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type userListing struct {
	User store.UserRecord   `json:"user"`
	Runs []store.RunSummary `json:"runs"`
}

func runListMode(st *store.Store, jsonOut bool) error {
	users, err := st.ListUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(os.Stderr, "no users found")
		return nil
	}

	listings := make([]userListing, len(users))
	for i, u := range users {
		runs, err := st.ListRunsForUser(u.ID)
		if err != nil {
			return err
		}
		listings[i] = userListing{User: u, Runs: runs}
	}

	if jsonOut {
		return printJSON(listings)
	}

	for _, l := range listings {
		fmt.Printf("%s (%s)\n", l.User.Username, shortID(l.User.ID))
		if len(l.Runs) == 0 {
			fmt.Println("  no plans")
			continue
		}
		fmt.Printf("  %-10s  %-40s  %-18s  %8s  %s\n", "Plan", "Goal", "Pessimism", "Versions", "Updated")
		for _, r := range l.Runs {
			fmt.Printf("  %-10s  %-40s  %-18s  %8d  %s\n",
				shortID(r.ID), truncate(r.Goal, 40), r.Pessimism, r.VersionCount,
				r.UpdatedAt.Format("2006-01-02T15:04:05Z"))
		}
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type versionRow struct {
	Index        int    `json:"index"`
	Notes        string `json:"notes"`
	Problems     int    `json:"problems"`
	Improvements int    `json:"improvements"`
	HasFollowup  bool   `json:"has_followup"`
	Timestamp    string `json:"timestamp"`
}

type detailOutput struct {
	PlanID      string             `json:"plan_id"`
	Username    string             `json:"username"`
	Input       timeline.UserInput `json:"input"`
	MazeAnswers int                `json:"maze_answers"`
	ChatTurns   int                `json:"chat_turns"`
	Versions    []versionRow       `json:"versions"`
}

func runDetailMode(st *store.Store, planID string, logTail int, jsonOut bool) error {
	snap, err := st.GetRun(planID)
	if err != nil {
		return err
	}

	out := detailOutput{
		PlanID:      snap.ID,
		Username:    snap.Username,
		Input:       snap.Input,
		MazeAnswers: len(snap.MazeAnswers),
		ChatTurns:   len(snap.History),
	}
	for i, v := range snap.Versions {
		out.Versions = append(out.Versions, versionRow{
			Index:        i,
			Notes:        v.Notes,
			Problems:     len(v.Problems),
			Improvements: len(v.Improvements),
			HasFollowup:  v.Followup != nil,
			Timestamp:    v.Timestamp.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Plan:      %s\n", out.PlanID)
	fmt.Printf("User:      %s\n", out.Username)
	fmt.Printf("Goal:      %s\n", out.Input.Goal)
	fmt.Printf("Pessimism: %s\n", out.Input.Pessimism)
	fmt.Printf("Maze:      %d answers\n", out.MazeAnswers)
	fmt.Printf("History:   %d turns\n", out.ChatTurns)

	fmt.Printf("\n%-5s  %-50s  %8s  %12s  %8s  %s\n", "Ver", "Notes", "Problems", "Improvements", "Followup", "Time")
	for _, v := range out.Versions {
		fu := "-"
		if v.HasFollowup {
			fu = "yes"
		}
		fmt.Printf("%-5d  %-50s  %8d  %12d  %8s  %s\n",
			v.Index, truncate(v.Notes, 50), v.Problems, v.Improvements, fu, v.Timestamp)
	}

	if logTail > 0 {
		return printRunLog(st, planID, logTail)
	}
	return nil
}

func printRunLog(st *store.Store, planID string, n int) error {
	rows, err := st.DB().Query(
		`SELECT stage, action, detail, created_at FROM (
			SELECT stage, action, detail, created_at FROM run_log
			WHERE plan_id = ? ORDER BY created_at DESC LIMIT ?
		) sub ORDER BY created_at ASC`, planID, n,
	)
	if err != nil {
		return fmt.Errorf("query run log: %w", err)
	}
	defer rows.Close()

	fmt.Printf("\nRun log (last %d):\n", n)
	for rows.Next() {
		var stage, action, createdAt string
		var detail *string
		if err := rows.Scan(&stage, &action, &detail, &createdAt); err != nil {
			return fmt.Errorf("scan run log: %w", err)
		}
		d := ""
		if detail != nil {
			d = *detail
		}
		fmt.Printf("  %-20s  %-16s  %-14s  %s\n", createdAt, stage, action, d)
	}
	return rows.Err()
}

// #endregion detail-mode

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion output
