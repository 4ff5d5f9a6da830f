package retrieval

import (
	"context"
	"fmt"
	"sort"
)

// #region keyword-retriever
// KeywordRetriever scores candidates by stopword-filtered keyword overlap
// with the query. It needs no model calls, so it is the fallback when no
// embedding endpoint is available.
type KeywordRetriever struct {
	config Config
}

// NewKeywordRetriever creates a KeywordRetriever with the given config.
func NewKeywordRetriever(config Config) *KeywordRetriever {
	return &KeywordRetriever{config: config}
}

// #endregion keyword-retriever

// #region retrieve
// Retrieve runs the 3-gate retrieval pipeline:
//  1. Gate 1 — Corpus: skip when retrieval is disabled or there is nothing
//     to retrieve from
//  2. Gate 2 — Relevance: keyword-overlap score against threshold
//  3. Gate 3 — Consistency: non-empty, within length limit, no dupes
func (r *KeywordRetriever) Retrieve(_ context.Context, query string, candidates []Candidate) (GateResult, error) {
	result := GateResult{}

	if !r.config.Enabled || len(candidates) == 0 {
		result.Reason = "gate1: retrieval disabled or empty corpus"
		return result, nil
	}
	result.Gate1Passed = true

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		result.Reason = "gate1: query has no usable keywords"
		result.Gate1Passed = false
		return result, nil
	}

	// Gate 2: overlap scoring
	var scored []PlanSummary
	for _, c := range candidates {
		shared := sharedKeywords(queryTokens, tokenize(c.Text))
		score := float32(shared) / float32(len(queryTokens))
		if score >= r.config.MinScore {
			scored = append(scored, PlanSummary{RunID: c.RunID, Text: c.Text, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if r.config.TopK > 0 && len(scored) > r.config.TopK {
		scored = scored[:r.config.TopK]
	}
	result.Gate2Count = len(scored)

	if result.Gate2Count == 0 {
		result.Reason = "gate2: no candidates above score threshold"
		return result, nil
	}

	// Gate 3: consistency check
	result.Retrieved = consistencyCheck(scored, r.config.MaxSummaryLen)
	result.Gate3Count = len(result.Retrieved)

	if result.Gate3Count == 0 {
		result.Reason = "gate3: all candidates failed consistency check"
	} else {
		result.Reason = fmt.Sprintf("retrieved %d plan summaries (gate2=%d, gate3=%d)",
			result.Gate3Count, result.Gate2Count, result.Gate3Count)
	}

	return result, nil
}

// #endregion retrieve

// #region consistency-check
// consistencyCheck validates retrieved summaries against basic constraints:
//   - Non-empty text
//   - Text within maxLen
//   - No duplicate run ids
func consistencyCheck(results []PlanSummary, maxLen int) []PlanSummary {
	seen := make(map[string]bool)
	var valid []PlanSummary

	for _, rec := range results {
		if rec.Text == "" {
			continue
		}
		if maxLen > 0 && len(rec.Text) > maxLen {
			continue
		}
		if seen[rec.RunID] {
			continue
		}
		seen[rec.RunID] = true
		valid = append(valid, rec)
	}

	return valid
}

// #endregion consistency-check
