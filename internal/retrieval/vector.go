package retrieval

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// #region embedder
// Embedder turns text into an embedding vector. The model gateway
// satisfies this against the embedContent endpoint.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion embedder

// #region vector-retriever
// VectorRetriever scores candidates by embedding similarity using an
// in-process chromem collection. Candidates are indexed on first sight;
// re-retrieval reuses the stored embeddings.
type VectorRetriever struct {
	config     Config
	collection *chromem.Collection
	indexed    map[string]bool
}

// NewVectorRetriever creates a VectorRetriever backed by embedder.
func NewVectorRetriever(embedder Embedder, config Config) (*VectorRetriever, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection("plan-summaries", nil, chromem.EmbeddingFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			return embedder.Embed(ctx, text)
		},
	))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &VectorRetriever{
		config:     config,
		collection: collection,
		indexed:    make(map[string]bool),
	}, nil
}

// #endregion vector-retriever

// #region retrieve
// Retrieve runs the same 3-gate pipeline as the keyword retriever, with
// gate 2 backed by cosine similarity instead of keyword overlap.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, candidates []Candidate) (GateResult, error) {
	result := GateResult{}

	if !r.config.Enabled || len(candidates) == 0 {
		result.Reason = "gate1: retrieval disabled or empty corpus"
		return result, nil
	}
	result.Gate1Passed = true

	if err := r.index(ctx, candidates); err != nil {
		return result, fmt.Errorf("index candidates: %w", err)
	}

	n := r.config.TopK
	if count := r.collection.Count(); n > count {
		n = count
	}
	hits, err := r.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return result, fmt.Errorf("similarity query: %w", err)
	}

	var scored []PlanSummary
	for _, h := range hits {
		if h.Similarity >= r.config.MinScore {
			scored = append(scored, PlanSummary{RunID: h.ID, Text: h.Content, Score: h.Similarity})
		}
	}
	result.Gate2Count = len(scored)

	if result.Gate2Count == 0 {
		result.Reason = "gate2: no candidates above similarity threshold"
		return result, nil
	}

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

func (r *VectorRetriever) index(ctx context.Context, candidates []Candidate) error {
	var docs []chromem.Document
	for _, c := range candidates {
		if c.Text == "" || r.indexed[c.RunID] {
			continue
		}
		docs = append(docs, chromem.Document{ID: c.RunID, Content: c.Text})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := r.collection.AddDocuments(ctx, docs, 1); err != nil {
		return err
	}
	for _, d := range docs {
		r.indexed[d.ID] = true
	}
	return nil
}

// #endregion retrieve
