// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// openAlexSelect trims the Works payload to the fields the funnel uses.
const openAlexSelect = "id,doi,title,publication_date,publication_year," +
	"authorships,abstract_inverted_index,cited_by_count,primary_location,concepts"

// openAlexConceptMinScore filters tangential concept tags from keywords.
const openAlexConceptMinScore = 0.4

// OpenAlexSource queries the OpenAlex API.
type OpenAlexSource struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns candidates.
func (s *OpenAlexSource) Search(ctx context.Context, query string, cfg types.SourcesConfig) ([]types.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", perSourceLimit(cfg, 200))},
		"page":     {"1"},
		"select":   {openAlexSelect},
	}
	if s.Email != "" {
		params.Set("mailto", s.Email)
	}

	reqURL := openAlexAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var candidates []types.Candidate
	for _, work := range oar.Results {
		c := types.Candidate{
			Title:         work.Title,
			Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
			Venue:         work.PrimaryLocation.Source.DisplayName,
			CitationCount: work.CitedByCount,
			Source:        "openalex",
		}

		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				c.Authors = append(c.Authors, authorship.Author.DisplayName)
			}
		}

		if work.PublicationYear > 0 {
			c.Year = work.PublicationYear
		} else if t, parseErr := time.Parse("2006-01-02", work.PublicationDate); parseErr == nil {
			c.Year = t.Year()
		}

		// Prefer the bare DOI as identifier since OpenAlex is DOI-centric.
		if work.DOI != "" {
			c.Identifier = strings.TrimPrefix(work.DOI, "https://doi.org/")
		} else {
			c.Identifier = work.ID
		}

		for _, concept := range work.Concepts {
			if concept.DisplayName != "" && concept.Score >= openAlexConceptMinScore {
				c.Keywords = append(c.Keywords, concept.DisplayName)
			}
		}

		if work.PrimaryLocation.LandingPageURL != "" {
			c.URL = work.PrimaryLocation.LandingPageURL
		} else {
			c.URL = work.ID
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	DOI                   string               `json:"doi"`
	Title                 string               `json:"title"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	CitedByCount          int                  `json:"cited_by_count"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
	Concepts              []openAlexConcept    `json:"concepts"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source         openAlexVenue `json:"source"`
	LandingPageURL string        `json:"landing_page_url"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}
