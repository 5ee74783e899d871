// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/litfunnel/internal/httputil"
	"github.com/pdiddy/litfunnel/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,venue,citationCount,fieldsOfStudy,url"

// SemanticScholarSource queries the Semantic Scholar Graph API.
type SemanticScholarSource struct {
	Client *http.Client
	APIKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns candidates. The
// unauthenticated tier rate limits aggressively, so requests go through
// the retry helper.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, cfg types.SourcesConfig) ([]types.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", perSourceLimit(cfg, 100))},
		"fields": {semanticFields},
	}

	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var candidates []types.Candidate
	for _, paper := range sr.Data {
		c := types.Candidate{
			Title:         paper.Title,
			Abstract:      paper.Abstract,
			Year:          paper.Year,
			Venue:         paper.Venue,
			Keywords:      paper.FieldsOfStudy,
			CitationCount: paper.CitationCount,
			Source:        "semantic_scholar",
			URL:           paper.URL,
		}

		for _, a := range paper.Authors {
			if a.Name != "" {
				c.Authors = append(c.Authors, a.Name)
			}
		}

		// DOI first so records dedup against the DOI-centric sources,
		// then the bare arXiv ID, then the S2 paper ID.
		switch {
		case paper.ExternalIDs.DOI != "":
			c.Identifier = paper.ExternalIDs.DOI
		case paper.ExternalIDs.ArXiv != "":
			c.Identifier = paper.ExternalIDs.ArXiv
		default:
			c.Identifier = paper.PaperID
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Venue         string              `json:"venue"`
	CitationCount int                 `json:"citationCount"`
	FieldsOfStudy []string            `json:"fieldsOfStudy"`
	URL           string              `json:"url"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
