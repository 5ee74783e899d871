// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source collects raw bibliographic candidates from the external
// literature APIs. Collection is best effort: a source that fails or times
// out contributes nothing and the search continues on the rest.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Source queries a single literature API. Each connector (OpenAlex,
// Crossref, Semantic Scholar, arXiv) implements this interface.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SourcesConfig) ([]types.Candidate, error)
}

// Enabled assembles the connectors the configuration turns on, sharing one
// HTTP client. A nil client uses a default with the configured timeout.
func Enabled(cfg types.SourcesConfig, client *http.Client) []Source {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var sources []Source
	if cfg.EnableOpenAlex {
		sources = append(sources, &OpenAlexSource{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableCrossref {
		sources = append(sources, &CrossrefSource{Client: client, Mailto: cfg.CrossrefMailto})
	}
	if cfg.EnableSemanticScholar {
		sources = append(sources, &SemanticScholarSource{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableArxiv {
		sources = append(sources, &ArxivSource{Client: client})
	}
	return sources
}

// Collect fans the query out to all sources concurrently and returns the
// per-source candidate groups plus a warning per failed source. A source
// that errors or misses the collection timeout is skipped, never fatal.
// Consecutive source starts are staggered by the configured delay so the
// APIs are not hit in one burst.
func Collect(ctx context.Context, query string, sources []Source, cfg types.SourcesConfig, logger *slog.Logger) ([][]types.Candidate, []string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, fmt.Errorf("query is empty: provide search terms")
	}
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no sources enabled")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	type sourceResult struct {
		candidates []types.Candidate
		err        error
		name       string
		elapsed    time.Duration
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, s := range sources {
		if i > 0 && cfg.InterSourceDelay > 0 {
			time.Sleep(cfg.InterSourceDelay)
		}
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			sctx := ctx
			cancel := context.CancelFunc(func() {})
			if cfg.CollectTimeout > 0 {
				sctx, cancel = context.WithTimeout(ctx, cfg.CollectTimeout)
			}
			defer cancel()

			start := time.Now()
			candidates, err := s.Search(sctx, query, cfg)
			ch <- sourceResult{candidates, err, s.Name(), time.Since(start)}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var groups [][]types.Candidate
	var warnings []string
	for sr := range ch {
		if sr.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", sr.name, sr.err))
			logger.Warn("source failed",
				slog.String("source", sr.name),
				slog.String("error", sr.err.Error()))
			continue
		}
		logger.Debug("source collected",
			slog.String("source", sr.name),
			slog.Int("candidates", len(sr.candidates)),
			slog.Duration("elapsed", sr.elapsed))
		groups = append(groups, sr.candidates)
	}

	return groups, warnings, nil
}

// perSourceLimit bounds a connector's page size to what its API accepts,
// applying the default when the configuration leaves it unset.
func perSourceLimit(cfg types.SourcesConfig, apiMax int) int {
	limit := cfg.MaxPerSource
	if limit <= 0 {
		limit = 100
	}
	if limit > apiMax {
		limit = apiMax
	}
	return limit
}
