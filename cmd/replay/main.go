package main

import (
	"flag"
	"fmt"
	"os"

	"murphy/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every step, not just failures")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}
	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}

	results, summary, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	os.Exit(printResults(results, summary, *verbose))
}

// #endregion main

// #region output

func printResults(results []replay.StepResult, summary replay.Summary, verbose bool) int {
	fmt.Printf("%-5s| %-16s| %-18s| %-9s| %s\n", "Step", "Op", "State", "Versions", "Check")
	fmt.Printf("%-5s+%-17s+%-19s+%-10s+%s\n", "-----", "-----------------", "-------------------", "----------", "------")

	for _, r := range results {
		check := "-"
		switch {
		case r.Checked && r.Passed:
			check = "OK"
		case r.Checked:
			check = "DIFF: " + r.Detail
		}
		if !verbose && check == "-" && r.Err == "" {
			continue
		}
		fmt.Printf("%-5d| %-16s| %-18s| %-9d| %s\n", r.Index, r.Op, r.State, r.Versions, check)
		if r.Err != "" && verbose {
			fmt.Printf("      error: %s\n", r.Err)
		}
	}

	fmt.Printf("\nSummary: %d steps, %d checked, %d passed, %d diverged, %d model calls\n",
		summary.TotalSteps, summary.Checked, summary.Passed, summary.Failed, summary.GatewayCalls)

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion output
