package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/retrieval"
	"murphy/internal/timeline"
)

// #region refine

// Refine regenerates the dashboard from free-form feedback and the binary
// flags on the selected version, appending a new Version. The new version
// replaces the failure log wholesale: refined problems supersede the
// initial ones. With nothing to act on the call is a no-op.
func (r *Run) Refine(ctx context.Context, feedback string, pessimism *timeline.Pessimism) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.versions) == 0 {
		return &PreconditionError{Op: "refine", Reason: "no dashboard yet"}
	}
	if r.state != StateDashboardReady && r.state != StateFollowupReady {
		return &PreconditionError{Op: "refine", Reason: fmt.Sprintf("cannot refine in state %s", r.state)}
	}

	// The override lands on the stored input immediately, even when the
	// call below turns out to be a no-op. The prior level is kept so the
	// version notes can record the change.
	prior := r.input.Pessimism
	if pessimism != nil {
		r.input.Pessimism = *pessimism
	}

	feedback = strings.TrimSpace(feedback)
	base := r.versions[r.currentIdx]
	likedP, dislikedP := flaggedTitles(base.Problems)
	likedI, dislikedI := flaggedTitlesImprovements(base.Improvements)

	if feedback == "" && len(likedP) == 0 && len(dislikedP) == 0 && len(likedI) == 0 && len(dislikedI) == 0 {
		if pessimism != nil && r.deps.Store != nil && r.planID != "" {
			if err := r.deps.Store.UpdateRun(r.planID, r.versions, r.history, pessimism, nil); err != nil {
				r.reportPersistence("update_run", err)
			}
		}
		return nil
	}

	pctx := prompt.Context{
		MazeAnswers:          r.mazeAnswers,
		Feedback:             feedback,
		LikedProblems:        likedP,
		DislikedProblems:     dislikedP,
		LikedImprovements:    likedI,
		DislikedImprovements: dislikedI,
		BasePlan:             base.RevisedPlan,
		SimilarPlans:         r.similarPlans(ctx),
	}
	system, user := r.deps.Builder.Build(parser.StageRefine, r.input, pctx)
	raw := r.deps.Gateway.Complete(ctx, system, user, r.history)
	recs, err := r.deps.Parser.Parse(raw, parser.StageRefine)
	if err != nil {
		return err
	}

	r.versions = append(r.versions, timeline.Version{
		Timestamp:    r.deps.now(),
		Problems:     recs.Problems,
		Improvements: recs.Improvements,
		RevisedPlan:  recs.RevisedPlan,
		Notes:        refinementNotes(feedback, prior, r.input.Pessimism),
	})
	r.currentIdx = len(r.versions) - 1
	r.history = append(r.history,
		timeline.ChatTurn{Role: timeline.RoleUser, Content: user},
		timeline.ChatTurn{Role: timeline.RoleModel, Content: raw},
	)
	r.state = StateDashboardReady
	r.logEvent("transition", "timeline refined")

	if r.deps.Store != nil && r.planID != "" {
		if err := r.deps.Store.UpdateRun(r.planID, r.versions, r.history, pessimism, nil); err != nil {
			r.reportPersistence("update_run", err)
		}
	}
	return nil
}

// similarPlans runs the retrieval gates over the user's past runs. Errors
// degrade to an empty result: refinement never fails on retrieval.
// Callers hold mu.
func (r *Run) similarPlans(ctx context.Context) []string {
	if r.deps.Retriever == nil || r.deps.Store == nil || r.userID == "" {
		return nil
	}
	summaries, err := r.deps.Store.ListRunsForUser(r.userID)
	if err != nil {
		log.Printf("[SESSION] %s: listing past runs failed: %v", r.id, err)
		return nil
	}
	var cands []retrieval.Candidate
	for _, s := range summaries {
		if s.ID == r.planID {
			continue
		}
		cands = append(cands, retrieval.Candidate{RunID: s.ID, Text: s.Goal})
	}
	res, err := r.deps.Retriever.Retrieve(ctx, r.input.Goal+" "+r.input.Plan, cands)
	if err != nil {
		log.Printf("[SESSION] %s: retrieval failed: %v", r.id, err)
		return nil
	}
	var texts []string
	for _, p := range res.Retrieved {
		texts = append(texts, p.Text)
	}
	return texts
}

func refinementNotes(feedback string, prior, current timeline.Pessimism) string {
	var note string
	if feedback == "" {
		note = "Refinement: feedback flags applied."
	} else {
		// Truncate on rune boundaries so multibyte feedback stays valid UTF-8.
		if runes := []rune(feedback); len(runes) > 50 {
			feedback = string(runes[:50])
		}
		note = fmt.Sprintf("Refinement: %s...", feedback)
	}
	if current != prior {
		note += fmt.Sprintf(" Pessimism changed from %s to %s.", prior, current)
	}
	return note
}

func flaggedTitles(items []timeline.Problem) (liked, disliked []string) {
	for _, it := range items {
		if it.Liked != nil && *it.Liked {
			liked = append(liked, it.Title)
		}
		if it.Disliked != nil && *it.Disliked {
			disliked = append(disliked, it.Title)
		}
	}
	return liked, disliked
}

func flaggedTitlesImprovements(items []timeline.Improvement) (liked, disliked []string) {
	for _, it := range items {
		if it.Liked != nil && *it.Liked {
			liked = append(liked, it.Title)
		}
		if it.Disliked != nil && *it.Disliked {
			disliked = append(disliked, it.Title)
		}
	}
	return liked, disliked
}

// #endregion refine

// #region versions

// SetCurrentVersion moves the selection pointer. The history itself never
// shrinks; selecting an older version only changes what refinement and
// followup build on.
func (r *Run) SetCurrentVersion(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx < 0 || idx >= len(r.versions) {
		return &PreconditionError{Op: "select version", Reason: fmt.Sprintf("index %d out of range", idx)}
	}
	r.currentIdx = idx
	return nil
}

// SetBinaryFeedback flips one flag on one dashboard item. Liked and
// disliked are stored independently so a client can set both; downstream
// prompts simply report each list as given.
func (r *Run) SetBinaryFeedback(versionIdx int, category, field string, itemIdx int, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if versionIdx < 0 || versionIdx >= len(r.versions) {
		return &PreconditionError{Op: "feedback", Reason: fmt.Sprintf("version %d out of range", versionIdx)}
	}
	v := &r.versions[versionIdx]

	var liked, disliked **bool
	switch category {
	case "problem":
		if itemIdx < 0 || itemIdx >= len(v.Problems) {
			return &PreconditionError{Op: "feedback", Reason: fmt.Sprintf("problem %d out of range", itemIdx)}
		}
		liked, disliked = &v.Problems[itemIdx].Liked, &v.Problems[itemIdx].Disliked
	case "improvement":
		if itemIdx < 0 || itemIdx >= len(v.Improvements) {
			return &PreconditionError{Op: "feedback", Reason: fmt.Sprintf("improvement %d out of range", itemIdx)}
		}
		liked, disliked = &v.Improvements[itemIdx].Liked, &v.Improvements[itemIdx].Disliked
	default:
		return &PreconditionError{Op: "feedback", Reason: fmt.Sprintf("unknown category %q", category)}
	}

	val := value
	switch field {
	case "liked":
		*liked = &val
	case "disliked":
		*disliked = &val
	default:
		return &PreconditionError{Op: "feedback", Reason: fmt.Sprintf("unknown field %q", field)}
	}

	if r.deps.Store != nil && r.planID != "" {
		if err := r.deps.Store.UpdateRun(r.planID, r.versions, r.history, nil, nil); err != nil {
			r.reportPersistence("update_run", err)
		}
	}
	return nil
}

// #endregion versions

// #region followup

// EnsureFollowup returns the selected version's followup checklist,
// generating it on first request and caching it on the version. A version
// whose followup was already built never costs another model call.
func (r *Run) EnsureFollowup(ctx context.Context) (*timeline.FollowupPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.versions) == 0 {
		return nil, &PreconditionError{Op: "followup", Reason: "no dashboard yet"}
	}
	if r.state != StateDashboardReady && r.state != StateFollowupReady {
		return nil, &PreconditionError{Op: "followup", Reason: fmt.Sprintf("cannot build followup in state %s", r.state)}
	}

	cur := &r.versions[r.currentIdx]
	if cur.Followup != nil {
		r.state = StateFollowupReady
		return cur.Followup, nil
	}

	system, user := r.deps.Builder.Build(parser.StageFollowup, r.input, prompt.Context{
		BasePlan: cur.RevisedPlan,
	})
	raw := r.deps.Gateway.Complete(ctx, system, user, r.history)
	recs, err := r.deps.Parser.Parse(raw, parser.StageFollowup)
	if err != nil {
		return nil, err
	}

	cur.Followup = &timeline.FollowupPlan{Tasks: recs.Tasks, Advice: recs.Advice}
	r.history = append(r.history,
		timeline.ChatTurn{Role: timeline.RoleUser, Content: user},
		timeline.ChatTurn{Role: timeline.RoleModel, Content: raw},
	)
	r.state = StateFollowupReady
	r.logEvent("transition", "followup generated")

	if r.deps.Store != nil && r.planID != "" {
		if err := r.deps.Store.UpdateRun(r.planID, r.versions, r.history, nil, cur.Followup); err != nil {
			r.reportPersistence("update_run", err)
		}
	}
	return cur.Followup, nil
}

// #endregion followup

// #region load

// LoadRun replaces the run's state with a persisted snapshot. No model call
// is made: the conversation history comes back verbatim, so a later refine
// continues where the saved run left off. The maze is considered complete;
// scenarios are not persisted and cannot be replayed.
func (r *Run) LoadRun(planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deps.Store == nil {
		return &PreconditionError{Op: "load", Reason: "no store configured"}
	}
	snap, err := r.deps.Store.GetRun(planID)
	if err != nil {
		return &PersistenceError{Op: "get_run", Err: err}
	}
	if len(snap.Versions) == 0 {
		return &PreconditionError{Op: "load", Reason: "snapshot has no versions"}
	}

	r.planID = snap.ID
	r.userID = snap.UserID
	r.profile.Username = snap.Username
	r.input = snap.Input
	r.problems = snap.Versions[0].Problems
	r.scenarios = nil
	r.mazeAnswers = snap.MazeAnswers
	r.mazeIdx = len(snap.MazeAnswers)
	r.versions = snap.Versions
	r.currentIdx = len(snap.Versions) - 1
	r.history = snap.History

	if r.versions[r.currentIdx].Followup != nil {
		r.state = StateFollowupReady
	} else {
		r.state = StateDashboardReady
	}
	r.logEvent("loaded", planID)
	return nil
}

// #endregion load
