package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"murphy/internal/config"
	"murphy/internal/gateway"
	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/session"
	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	gw := gateway.NewClient(gateway.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		EmbedModel: cfg.EmbeddingModel,
		BaseURL:    cfg.BaseURL,
		JSONMode:   cfg.ResponseMode == "structured",
		Timeout:    cfg.Timeout(),
	})

	mgr := session.NewManager(session.Deps{
		Gateway: gw,
		Parser:  parser.New(cfg.ParserMode()),
		Builder: prompt.NewBuilder(cfg.ParserMode()),
		Store:   st,
		LogDB:   st.DB(),
	})
	run := mgr.Create()

	fmt.Println("Murphy ready. Describe a plan and watch it fail.")
	fmt.Printf("  DB: %s | Model: %s | Mode: %s\n", cfg.DBPath, cfg.Model, cfg.ResponseMode)
	fmt.Println("Type 'help' for commands.")

	repl(run, st)
}

// #endregion main

// #region repl

func repl(run *session.Run, st *store.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			printHelp()
		case "profile":
			username, about, _ := strings.Cut(rest, " ")
			if username == "" {
				fmt.Println("usage: profile <username> [about...]")
				continue
			}
			run.SetProfile(username, strings.TrimSpace(about))
			fmt.Printf("profile set: %s\n", username)
		case "new":
			startPlan(ctx, run, scanner)
		case "show":
			printDashboard(run)
		case "refine":
			if rest == "" {
				fmt.Println("usage: refine <feedback>")
				continue
			}
			if err := run.Refine(ctx, rest, nil); err != nil {
				fmt.Printf("refine failed: %v\n", err)
				continue
			}
			printDashboard(run)
		case "pessimism":
			p := timeline.ParsePessimism(rest)
			if err := run.Refine(ctx, "", &p); err != nil {
				fmt.Printf("pessimism change failed: %v\n", err)
				continue
			}
			fmt.Printf("pessimism set to %s, applies from the next refinement\n", p)
		case "like", "dislike":
			applyFlag(run, cmd, rest)
		case "versions":
			printVersions(run)
		case "select":
			idx, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Println("usage: select <index>")
				continue
			}
			if err := run.SetCurrentVersion(idx); err != nil {
				fmt.Printf("select failed: %v\n", err)
				continue
			}
			printDashboard(run)
		case "followup":
			plan, err := run.EnsureFollowup(ctx)
			if err != nil {
				fmt.Printf("followup failed: %v\n", err)
				continue
			}
			printFollowup(plan)
		case "runs":
			printRuns(run, st)
		case "load":
			if err := run.LoadRun(rest); err != nil {
				fmt.Printf("load failed: %v\n", err)
				continue
			}
			printDashboard(run)
		case "reset":
			run.Reset()
			fmt.Println("run cleared, profile kept")
		default:
			fmt.Printf("unknown command %q, try 'help'\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  profile <username> [about]   set who you are (persists across resets)
  new                          start a plan and walk the failure maze
  show                         print the current dashboard
  refine <feedback>            regenerate the dashboard from feedback
  pessimism <level|1-5>        change the level used by future refinements
  like p|i <n>                 flag problem/improvement n on the current version
  dislike p|i <n>              same, negative
  versions                     list the version history
  select <index>               switch the selected version
  followup                     fetch the followup checklist (cached per version)
  runs                         list your saved plans
  load <plan-id>               resume a saved plan
  reset                        discard the run, keep the profile
  quit`)
}

// #endregion repl

// #region plan-flow

// startPlan collects the input fields, generates the timeline, and walks
// the maze one scenario at a time before finalizing.
func startPlan(ctx context.Context, run *session.Run, scanner *bufio.Scanner) {
	input := timeline.UserInput{
		Goal:      ask(scanner, "Goal: "),
		Plan:      ask(scanner, "Plan: "),
		About:     ask(scanner, "About you (optional): "),
		Concerns:  ask(scanner, "Concerns (optional): "),
		Pessimism: timeline.ParsePessimism(ask(scanner, "Pessimism [Optimistic..Total Chaos or 1-5]: ")),
	}

	fmt.Println("Consulting the failed timeline...")
	if err := run.SubmitInput(ctx, input); err != nil {
		fmt.Printf("generation failed: %v\n", err)
		return
	}

	fmt.Printf("\nThe timeline reports %d failure points. Into the maze.\n", len(run.Problems()))
	for {
		node, more, err := run.CurrentMazeNode()
		if err != nil {
			fmt.Printf("maze error: %v\n", err)
			return
		}
		if !more {
			break
		}
		fmt.Printf("\n== %s ==\n%s\n", node.Title, node.Description)
		for i, opt := range node.Options {
			fmt.Printf("  %d) %s  [stress %d, deviation %d, feasibility %d]\n",
				i+1, opt.Text, opt.Scores.Stress, opt.Scores.Deviation, opt.Scores.Feasibility)
		}
		answer := ask(scanner, "Your move (number or free text): ")
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(node.Options) {
			answer = node.Options[n-1].Text
		}
		if err := run.SubmitMazeAnswer(answer); err != nil {
			fmt.Printf("answer rejected: %v\n", err)
			return
		}
	}

	fmt.Println("\nSynthesizing the dashboard...")
	if err := run.Finalize(ctx); err != nil {
		fmt.Printf("finalize failed: %v\n", err)
		return
	}
	printDashboard(run)
}

func ask(scanner *bufio.Scanner, promptText string) string {
	fmt.Print(promptText)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func applyFlag(run *session.Run, cmd, rest string) {
	cat, idxStr, _ := strings.Cut(rest, " ")
	idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
	if err != nil || (cat != "p" && cat != "i") {
		fmt.Printf("usage: %s p|i <n>\n", cmd)
		return
	}
	category := "problem"
	if cat == "i" {
		category = "improvement"
	}
	field := "liked"
	if cmd == "dislike" {
		field = "disliked"
	}
	if err := run.SetBinaryFeedback(run.CurrentIndex(), category, field, idx, true); err != nil {
		fmt.Printf("flag failed: %v\n", err)
		return
	}
	fmt.Printf("%s %s %d\n", field, category, idx)
}

// #endregion plan-flow

// #region output

func printDashboard(run *session.Run) {
	v, ok := run.CurrentVersion()
	if !ok {
		fmt.Println("no dashboard yet, run 'new' first")
		return
	}
	fmt.Printf("\n-- Version %d of %d: %s --\n", run.CurrentIndex()+1, len(run.Versions()), v.Notes)
	fmt.Println("Failure log:")
	for i, p := range v.Problems {
		fmt.Printf("  %d) %s%s: %s\n", i, flagMark(p.Liked, p.Disliked), p.Title, p.Description)
	}
	fmt.Println("Improvements:")
	for i, imp := range v.Improvements {
		fmt.Printf("  %d) %s%s: %s\n", i, flagMark(imp.Liked, imp.Disliked), imp.Title, imp.Description)
	}
	fmt.Printf("Revised plan:\n  %s\n", v.RevisedPlan)
}

func printVersions(run *session.Run) {
	versions := run.Versions()
	if len(versions) == 0 {
		fmt.Println("no versions yet")
		return
	}
	for i, v := range versions {
		marker := " "
		if i == run.CurrentIndex() {
			marker = "*"
		}
		fu := ""
		if v.Followup != nil {
			fu = " [followup]"
		}
		fmt.Printf("%s %d: %s%s\n", marker, i, v.Notes, fu)
	}
}

func printFollowup(plan *timeline.FollowupPlan) {
	fmt.Println("\nFollowup checklist:")
	for _, task := range plan.Tasks {
		fmt.Printf("  - %s (%s): %s\n", task.Title, task.Duration, task.Instruction)
	}
	if plan.Advice != "" {
		fmt.Printf("Advice: %s\n", plan.Advice)
	}
}

func printRuns(run *session.Run, st *store.Store) {
	username := run.Profile().Username
	if username == "" {
		fmt.Println("set a profile first")
		return
	}
	users, err := st.ListUsers()
	if err != nil {
		fmt.Printf("list users: %v\n", err)
		return
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		runs, err := st.ListRunsForUser(u.ID)
		if err != nil {
			fmt.Printf("list runs: %v\n", err)
			return
		}
		if len(runs) == 0 {
			fmt.Println("no saved plans")
			return
		}
		for _, r := range runs {
			fmt.Printf("  %s  %-40s  %s (%d versions)\n", r.ID, r.Goal, r.Pessimism, r.VersionCount)
		}
		return
	}
	fmt.Println("no saved plans")
}

func flagMark(liked, disliked *bool) string {
	switch {
	case liked != nil && *liked && disliked != nil && *disliked:
		return "[+-] "
	case liked != nil && *liked:
		return "[+] "
	case disliked != nil && *disliked:
		return "[-] "
	}
	return ""
}

// #endregion output
