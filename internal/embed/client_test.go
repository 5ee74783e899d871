// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// requestLog records the input batches a fake embeddings endpoint received.
type requestLog struct {
	mu     sync.Mutex
	inputs [][]string
}

func (l *requestLog) add(in []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inputs = append(l.inputs, in)
}

func (l *requestLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inputs)
}

func (l *requestLog) all() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, len(l.inputs))
	copy(out, l.inputs)
	return out
}

// newFakeAPI serves the embeddings endpoint, answering each input text with
// a one-dimensional vector holding the text's length.
func newFakeAPI(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.add(req.Input)

		data := make([]map[string]any, len(req.Input))
		for i, s := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"embedding": []float32{float32(len(s))},
				"index":     i,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(types.EmbeddingConfig{
		Model:     "test-embed",
		APIKey:    "test-key",
		BaseURL:   baseURL,
		BatchSize: 2,
		CacheSize: 16,
		Timeout:   5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// --- batching ---

func TestEmbedBatchReturnsVectorsInOrder(t *testing.T) {
	srv, _ := newFakeAPI(t)
	c := testClient(t, srv.URL)

	texts := []string{"aa", "bbbb", "c"}
	vecs, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("len(vecs) = %d, want %d", len(vecs), len(texts))
	}
	for i, text := range texts {
		if len(vecs[i]) != 1 || vecs[i][0] != float32(len(text)) {
			t.Errorf("vecs[%d] = %v, want [%d]", i, vecs[i], len(text))
		}
	}
}

func TestEmbedBatchChunksRequests(t *testing.T) {
	srv, log := newFakeAPI(t)
	c := testClient(t, srv.URL)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if got := log.count(); got != 3 {
		t.Errorf("request count = %d, want 3 for batch size 2", got)
	}
	total := 0
	for _, in := range log.all() {
		if len(in) > 2 {
			t.Errorf("request carried %d inputs, batch size is 2", len(in))
		}
		total += len(in)
	}
	if total != len(texts) {
		t.Errorf("requests carried %d inputs in total, want %d", total, len(texts))
	}
	for i, text := range texts {
		if vecs[i][0] != float32(len(text)) {
			t.Errorf("vecs[%d] = %v, want [%d]", i, vecs[i], len(text))
		}
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	srv, log := newFakeAPI(t)
	c := testClient(t, srv.URL)

	vecs, err := c.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vecs != nil {
		t.Errorf("vecs = %v, want nil", vecs)
	}
	if log.count() != 0 {
		t.Errorf("empty batch should not hit the API, saw %d requests", log.count())
	}
}

// --- caching ---

func TestEmbedBatchCachesVectors(t *testing.T) {
	srv, log := newFakeAPI(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	if _, err := c.EmbedBatch(ctx, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("first EmbedBatch: %v", err)
	}
	after := log.count()

	vecs, err := c.EmbedBatch(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("second EmbedBatch: %v", err)
	}
	if log.count() != after {
		t.Errorf("fully cached batch hit the API: %d -> %d requests", after, log.count())
	}
	if vecs[0][0] != 5 || vecs[1][0] != 4 {
		t.Errorf("cached vectors wrong: %v", vecs)
	}

	if _, err := c.EmbedBatch(ctx, []string{"alpha", "gamma"}); err != nil {
		t.Fatalf("third EmbedBatch: %v", err)
	}
	requests := log.all()
	last := requests[len(requests)-1]
	if len(last) != 1 || last[0] != "gamma" {
		t.Errorf("only the cache miss should be requested, got %v", last)
	}
}

// --- failures ---

func TestEmbedBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "backend unavailable", "type": "server_error"},
		})
	}))
	t.Cleanup(srv.Close)
	c := testClient(t, srv.URL)

	_, err := c.EmbedBatch(context.Background(), []string{"alpha"})
	if err == nil {
		t.Fatal("expected an error from a failing endpoint")
	}
	if !strings.Contains(err.Error(), "embeddings request") {
		t.Errorf("error = %v, want embeddings request context", err)
	}
}

func TestEmbedBatchVectorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "embedding": []float32{1}, "index": 0},
			},
		})
	}))
	t.Cleanup(srv.Close)
	c := testClient(t, srv.URL)

	_, err := c.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err == nil {
		t.Fatal("expected an error when the API returns too few vectors")
	}
	if !strings.Contains(err.Error(), "vectors") {
		t.Errorf("error = %v, want vector count mismatch", err)
	}
}

// --- construction ---

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(types.EmbeddingConfig{}, nil); err == nil {
		t.Fatal("expected an error for a missing API key")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New(types.EmbeddingConfig{APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defaults := types.DefaultEmbeddingConfig()
	if c.model != defaults.Model {
		t.Errorf("model = %q, want %q", c.model, defaults.Model)
	}
	if c.batchSize != defaults.BatchSize {
		t.Errorf("batchSize = %d, want %d", c.batchSize, defaults.BatchSize)
	}
	if c.timeout != defaults.Timeout {
		t.Errorf("timeout = %v, want %v", c.timeout, defaults.Timeout)
	}
}
