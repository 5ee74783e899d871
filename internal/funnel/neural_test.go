// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/litfunnel/pkg/types"
)

func TestScoreNeuralRanksSimilarTextHigher(t *testing.T) {
	cands := scoredFrom(
		types.Candidate{Title: "attention transformers"},
		types.Candidate{Title: "zebra migration patterns"},
	)

	scored, err := scoreNeural(context.Background(), cands, "attention transformers", &stubEmbedder{})
	if err != nil {
		t.Fatalf("scoreNeural: %v", err)
	}

	for i, c := range scored {
		if !c.NeuralScored {
			t.Errorf("scored[%d].NeuralScored = false, want true", i)
		}
		if c.NeuralScore < 0 || c.NeuralScore > 1 {
			t.Errorf("scored[%d].NeuralScore = %g, out of [0,1]", i, c.NeuralScore)
		}
	}
	if scored[0].NeuralScore <= scored[1].NeuralScore {
		t.Errorf("identical text %g should outscore unrelated text %g",
			scored[0].NeuralScore, scored[1].NeuralScore)
	}
	if scored[0].NeuralScore < 0.99 {
		t.Errorf("identical text similarity = %g, want ~1", scored[0].NeuralScore)
	}
}

func TestScoreNeuralLeavesInputUntouched(t *testing.T) {
	cands := scoredFrom(types.Candidate{Title: "attention transformers"})
	cands[0].BM25Score = 3.5
	cands[0].QualityScore = 72

	scored, err := scoreNeural(context.Background(), cands, "attention transformers", &stubEmbedder{})
	if err != nil {
		t.Fatalf("scoreNeural: %v", err)
	}

	if cands[0].NeuralScored {
		t.Error("input slice was mutated")
	}
	if scored[0].BM25Score != 3.5 || scored[0].QualityScore != 72 {
		t.Errorf("existing scores lost: %+v", scored[0])
	}
}

func TestScoreNeuralEmptyInput(t *testing.T) {
	emb := &stubEmbedder{}
	scored, err := scoreNeural(context.Background(), nil, "query", emb)
	if err != nil {
		t.Fatalf("scoreNeural: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("len(scored) = %d, want 0", len(scored))
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for empty input, want 0", emb.calls)
	}
}

func TestScoreNeuralEmbedderError(t *testing.T) {
	cands := scoredFrom(types.Candidate{Title: "attention transformers"})

	_, err := scoreNeural(context.Background(), cands, "attention", &stubEmbedder{err: errors.New("quota exceeded")})
	if err == nil {
		t.Fatal("expected embedder error to propagate")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want wrapped embedder error", err)
	}
}

// shortEmbedder returns fewer vectors than texts.
type shortEmbedder struct{}

func (shortEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return [][]float32{letterVector(texts[0])}, nil
}

func TestScoreNeuralVectorCountMismatch(t *testing.T) {
	cands := scoredFrom(types.Candidate{Title: "attention transformers"})

	_, err := scoreNeural(context.Background(), cands, "attention", shortEmbedder{})
	if err == nil {
		t.Fatal("expected error on vector count mismatch")
	}
	if !strings.Contains(err.Error(), "vectors") {
		t.Errorf("err = %v, want vector count mismatch", err)
	}
}

func TestEmbeddingText(t *testing.T) {
	c := types.Candidate{Title: "A title", Abstract: "An abstract."}
	if got := embeddingText(c); got != "A title. An abstract." {
		t.Errorf("embeddingText = %q", got)
	}
	if got := embeddingText(types.Candidate{Title: "Only title"}); got != "Only title" {
		t.Errorf("embeddingText without abstract = %q", got)
	}
}
