// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Embedder produces dense vectors for a batch of texts in one call. The
// funnel embeds the query and the bounded top-K candidate texts together
// rather than one at a time.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// embeddingText is the candidate text projected into the embedding space.
func embeddingText(c types.Candidate) string {
	if c.Abstract == "" {
		return c.Title
	}
	return c.Title + ". " + c.Abstract
}

// scoreNeural batch-embeds the query and candidates, ranks the candidates
// in an in-memory vector collection, and returns a new collection with
// NeuralScore (cosine similarity mapped to [0,1]) assigned. Any error
// leaves the input usable; the caller degrades to lexical ordering.
func scoreNeural(ctx context.Context, cands []types.ScoredCandidate, query string, embedder Embedder) ([]types.ScoredCandidate, error) {
	out := make([]types.ScoredCandidate, len(cands))
	copy(out, cands)
	if len(cands) == 0 {
		return out, nil
	}

	texts := make([]string, 0, len(cands)+1)
	texts = append(texts, query)
	for _, c := range cands {
		texts = append(texts, embeddingText(c.Candidate))
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding batch of %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vectors), len(texts))
	}

	similarities, err := rankBySimilarity(ctx, query, vectors[0], texts[1:], vectors[1:])
	if err != nil {
		return nil, err
	}

	for i := range out {
		if sim, ok := similarities[strconv.Itoa(i)]; ok {
			out[i].NeuralScore = cosineToUnit(float64(sim))
			out[i].NeuralScored = true
		}
	}
	return out, nil
}

// rankBySimilarity loads the candidate vectors into an ephemeral
// in-memory collection and queries it with the precomputed query vector,
// returning cosine similarity per document ID. The collection lives for
// one search only; nothing is shared across requests.
func rankBySimilarity(ctx context.Context, query string, queryVec []float32, texts []string, vectors [][]float32) (map[string]float32, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("candidates", nil, fixedEmbedding(queryVec))
	if err != nil {
		return nil, fmt.Errorf("creating vector collection: %w", err)
	}

	docs := make([]chromem.Document, len(texts))
	for i := range texts {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   texts[i],
			Embedding: vectors[i],
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("loading candidate vectors: %w", err)
	}

	results, err := collection.Query(ctx, query, len(docs), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying vector collection: %w", err)
	}

	similarities := make(map[string]float32, len(results))
	for _, r := range results {
		similarities[r.ID] = r.Similarity
	}
	return similarities, nil
}

// fixedEmbedding returns an embedding function that serves the already
// computed query vector. Candidate documents carry their vectors
// directly, so the collection never embeds anything itself.
func fixedEmbedding(queryVec []float32) chromem.EmbeddingFunc {
	return func(_ context.Context, _ string) ([]float32, error) {
		return queryVec, nil
	}
}
