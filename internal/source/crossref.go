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

// crossrefAPIBase is the Crossref works search endpoint. Declared as a var
// so tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// crossrefSelect trims the works payload to the fields the funnel uses.
const crossrefSelect = "DOI,title,abstract,author,issued,container-title," +
	"subject,is-referenced-by-count,URL"

// CrossrefSource queries the Crossref REST API.
type CrossrefSource struct {
	Client *http.Client
	// Mailto is sent as mailto parameter for polite pool access.
	Mailto string
}

// Name returns the source identifier.
func (s *CrossrefSource) Name() string { return "crossref" }

// Search queries the Crossref API and returns candidates. Crossref
// throttles with HTTP 503, so requests go through the retry helper.
func (s *CrossrefSource) Search(ctx context.Context, query string, cfg types.SourcesConfig) ([]types.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}

	params := url.Values{
		"query":  {query},
		"rows":   {fmt.Sprintf("%d", perSourceLimit(cfg, 1000))},
		"select": {crossrefSelect},
	}
	if s.Mailto != "" {
		params.Set("mailto", s.Mailto)
	}

	reqURL := crossrefAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var candidates []types.Candidate
	for _, work := range cr.Message.Items {
		c := types.Candidate{
			Identifier:    work.DOI,
			Abstract:      stripJATS(work.Abstract),
			Keywords:      work.Subject,
			CitationCount: work.CitedByCount,
			Source:        "crossref",
			URL:           work.URL,
		}

		if len(work.Title) > 0 {
			c.Title = work.Title[0]
		}
		if len(work.ContainerTitle) > 0 {
			c.Venue = work.ContainerTitle[0]
		}

		for _, a := range work.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				c.Authors = append(c.Authors, name)
			}
		}

		if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
			c.Year = work.Issued.DateParts[0][0]
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// stripJATS removes the JATS XML markup Crossref wraps abstracts in and
// collapses the remaining whitespace.
func stripJATS(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	TotalResults int            `json:"total-results"`
	Items        []crossrefWork `json:"items"`
}

type crossrefWork struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	Abstract       string           `json:"abstract"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	ContainerTitle []string         `json:"container-title"`
	Subject        []string         `json:"subject"`
	CitedByCount   int              `json:"is-referenced-by-count"`
	URL            string           `json:"URL"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
