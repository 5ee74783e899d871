// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/litfunnel/internal/httputil"
)

// --- Mock Crossref server ---

const sampleCrossrefJSON = `{
  "status": "ok",
  "message": {
    "total-results": 2,
    "items": [
      {
        "DOI": "10.1093/sleep/zsab132",
        "title": ["Napping and memory consolidation"],
        "abstract": "<jats:p>Daytime naps improve <jats:italic>declarative</jats:italic> memory retention.</jats:p>",
        "author": [
          {"given": "Liang", "family": "Chen"},
          {"given": "Sofia", "family": "Marques"}
        ],
        "issued": {"date-parts": [[2021, 6, 4]]},
        "container-title": ["Sleep"],
        "subject": ["Physiology", "Neurology"],
        "is-referenced-by-count": 87,
        "URL": "http://dx.doi.org/10.1093/sleep/zsab132"
      },
      {
        "DOI": "10.5555/min.1",
        "title": [],
        "abstract": "A plain abstract without markup.",
        "author": [{"family": "Okonkwo"}],
        "issued": {"date-parts": [[]]}
      }
    ]
  }
}`

func crossrefTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

// --- CrossrefSource.Search ---

func TestCrossrefSourceSearch(t *testing.T) {
	ts := crossrefTestServer(http.StatusOK, sampleCrossrefJSON)
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	s := &CrossrefSource{Client: ts.Client(), Mailto: "test@example.com"}
	candidates, err := s.Search(context.Background(), "napping memory", testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(candidates))
	}

	c0 := candidates[0]
	if c0.Identifier != "10.1093/sleep/zsab132" {
		t.Errorf("Identifier = %q, want bare DOI", c0.Identifier)
	}
	if c0.Title != "Napping and memory consolidation" {
		t.Errorf("Title = %q", c0.Title)
	}
	if c0.Source != "crossref" {
		t.Errorf("Source = %q, want %q", c0.Source, "crossref")
	}
	// JATS markup should be stripped from the abstract.
	if c0.Abstract != "Daytime naps improve declarative memory retention." {
		t.Errorf("Abstract = %q, markup not stripped", c0.Abstract)
	}
	if len(c0.Authors) != 2 || c0.Authors[0] != "Liang Chen" || c0.Authors[1] != "Sofia Marques" {
		t.Errorf("Authors = %v, want [Liang Chen, Sofia Marques]", c0.Authors)
	}
	if c0.Year != 2021 {
		t.Errorf("Year = %d, want 2021", c0.Year)
	}
	if c0.Venue != "Sleep" {
		t.Errorf("Venue = %q, want %q", c0.Venue, "Sleep")
	}
	if len(c0.Keywords) != 2 || c0.Keywords[0] != "Physiology" {
		t.Errorf("Keywords = %v, want subjects", c0.Keywords)
	}
	if c0.CitationCount != 87 {
		t.Errorf("CitationCount = %d, want 87", c0.CitationCount)
	}
	if c0.URL != "http://dx.doi.org/10.1093/sleep/zsab132" {
		t.Errorf("URL = %q", c0.URL)
	}

	// Minimal record: empty title array, family-only author, no year.
	c1 := candidates[1]
	if c1.Title != "" {
		t.Errorf("Title = %q, want empty", c1.Title)
	}
	if len(c1.Authors) != 1 || c1.Authors[0] != "Okonkwo" {
		t.Errorf("Authors = %v, want [Okonkwo]", c1.Authors)
	}
	if c1.Year != 0 {
		t.Errorf("Year = %d, want 0 for empty date-parts", c1.Year)
	}
	if c1.Abstract != "A plain abstract without markup." {
		t.Errorf("Abstract = %q", c1.Abstract)
	}
}

// --- stripJATS ---

func TestStripJATS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "A plain abstract.", "A plain abstract."},
		{"plain text trimmed", "  padded  ", "padded"},
		{"single paragraph", "<jats:p>Hello world.</jats:p>", "Hello world."},
		{"nested markup", "<jats:p>Accurate <jats:italic>protein</jats:italic> models.</jats:p>", "Accurate protein models."},
		{"multiple paragraphs", "<jats:p>First part.</jats:p>\n<jats:p>Second part.</jats:p>", "First part. Second part."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripJATS(tt.input); got != tt.want {
				t.Errorf("stripJATS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- Request parameters ---

func TestCrossrefSourceRequestParams(t *testing.T) {
	var query map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","message":{"total-results":0,"items":[]}}`)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	s := &CrossrefSource{Client: ts.Client(), Mailto: "triage@example.com"}
	if _, err := s.Search(context.Background(), "napping", testCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}

	get := func(k string) string {
		if v := query[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	if get("query") != "napping" {
		t.Errorf("query = %q, want %q", get("query"), "napping")
	}
	if get("rows") != "20" {
		t.Errorf("rows = %q, want %q", get("rows"), "20")
	}
	if get("select") != crossrefSelect {
		t.Errorf("select = %q, want field list", get("select"))
	}
	if get("mailto") != "triage@example.com" {
		t.Errorf("mailto = %q, want configured address", get("mailto"))
	}

	s = &CrossrefSource{Client: ts.Client()}
	if _, err := s.Search(context.Background(), "napping", testCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if get("mailto") != "" {
		t.Errorf("mailto = %q, should be empty when unset", get("mailto"))
	}
}

// --- Throttling ---

func TestCrossrefSourceRetriesOn503(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleCrossrefJSON)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	s := &CrossrefSource{Client: ts.Client()}
	candidates, err := s.Search(context.Background(), "napping", testCfg())
	if err != nil {
		t.Fatalf("Search should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(candidates) != 2 {
		t.Errorf("len(candidates) = %d, want 2", len(candidates))
	}
}

// --- Error cases ---

func TestCrossrefSourceHTTPNon200(t *testing.T) {
	ts := crossrefTestServer(http.StatusInternalServerError, "")
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	s := &CrossrefSource{Client: ts.Client()}
	_, err := s.Search(context.Background(), "napping", testCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("expected HTTP 500 error, got: %v", err)
	}
}

func TestCrossrefSourceEmptyQuery(t *testing.T) {
	s := &CrossrefSource{Client: &http.Client{}}
	_, err := s.Search(context.Background(), "", testCfg())
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty query error, got: %v", err)
	}
}

func TestCrossrefSourceMalformedJSON(t *testing.T) {
	ts := crossrefTestServer(http.StatusOK, `{"message": [broken`)
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	s := &CrossrefSource{Client: ts.Client()}
	_, err := s.Search(context.Background(), "napping", testCfg())
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("expected parse error, got: %v", err)
	}
}
