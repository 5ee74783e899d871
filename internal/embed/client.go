// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed provides the embedding client backing the funnel's neural
// scorer. It batches texts against an OpenAI-compatible embeddings endpoint
// and memoizes vectors in an LRU cache so repeated searches do not re-embed
// unchanged titles and abstracts.
package embed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// maxInflight bounds concurrent embeddings requests per EmbedBatch call.
const maxInflight = 4

// Client calls an OpenAI-compatible embeddings API and satisfies the
// funnel's Embedder interface.
type Client struct {
	api       *openai.Client
	model     string
	batchSize int
	timeout   time.Duration
	cache     *lru.Cache[string, []float32]
	logger    *slog.Logger
}

// New builds an embedding client from cfg. Zero values for model, batch
// size, cache size and timeout fall back to the defaults documented on
// EmbeddingConfig; a missing API key is an error.
func New(cfg types.EmbeddingConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding config: api_key is required")
	}
	defaults := types.DefaultEmbeddingConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaults.CacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	cache, err := lru.New[string, []float32](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	return &Client{
		api:       openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		timeout:   cfg.Timeout,
		cache:     cache,
		logger:    logger,
	}, nil
}

// EmbedBatch returns one vector per input text, in input order. Cached
// texts are served from memory; the rest are fetched in chunks of the
// configured batch size, at most maxInflight requests in flight. The whole
// call is bounded by the configured timeout.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := make([][]float32, len(texts))
	var misses []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		misses = append(misses, i)
	}

	c.logger.Debug("embedding batch",
		slog.Int("texts", len(texts)),
		slog.Int("cached", len(texts)-len(misses)),
		slog.String("model", c.model))

	if len(misses) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflight)
	for start := 0; start < len(misses); start += c.batchSize {
		chunk := misses[start:min(start+c.batchSize, len(misses))]
		g.Go(func() error {
			input := make([]string, len(chunk))
			for j, idx := range chunk {
				input[j] = texts[idx]
			}
			resp, err := c.api.CreateEmbeddings(gctx, openai.EmbeddingRequestStrings{
				Input: input,
				Model: openai.EmbeddingModel(c.model),
			})
			if err != nil {
				return fmt.Errorf("embeddings request: %w", err)
			}
			if len(resp.Data) != len(chunk) {
				return fmt.Errorf("embeddings API returned %d vectors for %d inputs",
					len(resp.Data), len(chunk))
			}
			for j, idx := range chunk {
				out[idx] = resp.Data[j].Embedding
				c.cache.Add(texts[idx], resp.Data[j].Embedding)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
