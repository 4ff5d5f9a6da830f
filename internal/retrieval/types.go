package retrieval

import "context"

// #region config
// Config holds thresholds and limits for the 3-gate retrieval pipeline.
type Config struct {
	Enabled       bool    // Gate 1: retrieval switched on at all
	MinScore      float32 // Gate 2: min relevance score
	TopK          int     // Max candidates returned
	MaxSummaryLen int     // Max chars per summary
}

// DefaultConfig returns sensible defaults for retrieval gating.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MinScore:      0.15,
		TopK:          3,
		MaxSummaryLen: 2000,
	}
}

// #endregion config

// #region candidate
// Candidate is one past plan eligible for retrieval: its run id plus a
// short textual summary (goal and latest revised plan).
type Candidate struct {
	RunID string
	Text  string
}

// PlanSummary is a retrieved candidate with its relevance score.
type PlanSummary struct {
	RunID string
	Text  string
	Score float32
}

// #endregion candidate

// #region gate-result
// GateResult captures the outcome of the 3-gate retrieval pipeline.
type GateResult struct {
	Gate1Passed bool          // corpus/enablement check passed
	Gate2Count  int           // candidates above the score threshold
	Gate3Count  int           // candidates passing consistency check
	Retrieved   []PlanSummary // final summaries after all gates
	Reason      string        // human-readable explanation
}

// #endregion gate-result

// #region retriever
// Retriever scores past-plan candidates against a query and returns the
// survivors of the gate pipeline. Implementations: keyword overlap and
// vector similarity.
type Retriever interface {
	Retrieve(ctx context.Context, query string, candidates []Candidate) (GateResult, error)
}

// #endregion retriever
