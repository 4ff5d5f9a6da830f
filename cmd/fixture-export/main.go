package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"murphy/internal/replay"
	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region main

func main() {
	dbPath := flag.String("db", "murphy.db", "path to murphy.db")
	planID := flag.String("plan", "", "id of the plan to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	mode := flag.String("mode", "delimited", "response mode the plan was recorded under")
	flag.Parse()

	if *planID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/murphy.db --plan <id> --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *planID, *mode, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, planID, mode, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	snap, err := st.GetRun(planID)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	fixture, err := buildFixture(snap, mode)
	if err != nil {
		return err
	}
	return writeFixture(fixture, outPath)
}

// buildFixture reconstructs replay steps from a persisted run. The chat
// history alternates user and model turns; each model turn is the raw
// output recorded for one stage, in the order generate, finalize, then one
// per refinement, with the final version's followup last when present.
func buildFixture(snap store.RunSnapshot, mode string) (*replay.Fixture, error) {
	raws := modelTurns(snap.History)
	if len(raws) < 2 {
		return nil, fmt.Errorf("plan %s: history has %d model turns, need at least generate and finalize", snap.ID, len(raws))
	}

	f := &replay.Fixture{
		Description:  fmt.Sprintf("Exported plan %s (%q), %d versions", snap.ID, snap.Input.Goal, len(snap.Versions)),
		ResponseMode: mode,
		Input: replay.FixtureInput{
			About:     snap.Input.About,
			Goal:      snap.Input.Goal,
			Plan:      snap.Input.Plan,
			Concerns:  snap.Input.Concerns,
			Pessimism: string(snap.Input.Pessimism),
		},
	}

	f.Steps = append(f.Steps, replay.Step{
		Op:       "generate",
		Response: raws[0],
		Expect:   &replay.Expectation{State: "maze_in_progress"},
	})
	for _, a := range snap.MazeAnswers {
		f.Steps = append(f.Steps, replay.Step{Op: "answer", Answer: a.Answer})
	}
	f.Steps = append(f.Steps, replay.Step{
		Op:       "finalize",
		Response: raws[1],
		Expect:   &replay.Expectation{State: "dashboard_ready", Versions: 1},
	})

	next := 2
	for i := 1; i < len(snap.Versions); i++ {
		if next >= len(raws) {
			return nil, fmt.Errorf("plan %s: %d versions but only %d model turns", snap.ID, len(snap.Versions), len(raws))
		}
		f.Steps = append(f.Steps, replay.Step{
			Op:       "refine",
			Feedback: snap.Versions[i].Notes,
			Response: raws[next],
			Expect:   &replay.Expectation{State: "dashboard_ready", Versions: i + 1},
		})
		next++
	}

	last := snap.Versions[len(snap.Versions)-1]
	if last.Followup != nil && next < len(raws) {
		f.Steps = append(f.Steps, replay.Step{
			Op:       "followup",
			Response: raws[next],
			Expect:   &replay.Expectation{State: "followup_ready", Versions: len(snap.Versions)},
		})
	}
	return f, nil
}

func modelTurns(history []timeline.ChatTurn) []string {
	var out []string
	for _, turn := range history {
		if turn.Role == timeline.RoleModel {
			out = append(out, turn.Content)
		}
	}
	return out
}

func writeFixture(fixture *replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("Wrote fixture to %s (%d bytes, %d steps)\n", outPath, len(data), len(fixture.Steps))
	return nil
}

// #endregion export
