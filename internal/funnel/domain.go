// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"strings"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// domainLexicon maps subject areas to signal terms. A query or candidate
// is assigned the domain whose terms it overlaps most. The coverage
// follows the fields literature-review users search across.
var domainLexicon = map[string][]string{
	"psychology": {
		"psychology", "psychological", "cognitive", "cognition", "behavioral",
		"behaviour", "behavior", "emotion", "emotional", "mental", "perception",
		"attitude", "attitudes", "personality", "wellbeing",
	},
	"medicine": {
		"clinical", "medical", "medicine", "patient", "patients", "treatment",
		"therapy", "disease", "diagnosis", "health", "healthcare", "nursing",
		"intervention", "symptoms", "epidemiology",
	},
	"education": {
		"education", "educational", "learning", "teaching", "students",
		"curriculum", "pedagogy", "classroom", "literacy", "school", "schools",
		"teacher", "teachers", "instruction",
	},
	"social science": {
		"social", "society", "sociology", "sociological", "community",
		"cultural", "culture", "qualitative", "discourse", "ethnography",
		"stakeholder", "stakeholders", "policy", "governance", "subjectivity",
	},
	"computer science": {
		"algorithm", "algorithms", "software", "computing", "computational",
		"machine", "neural", "network", "networks", "data", "artificial",
		"intelligence", "model", "models", "system", "systems",
	},
	"economics": {
		"economic", "economics", "market", "markets", "financial", "finance",
		"trade", "labor", "labour", "income", "investment", "monetary",
		"fiscal", "productivity",
	},
	"environment": {
		"environmental", "environment", "climate", "sustainability",
		"sustainable", "ecology", "ecological", "pollution", "energy",
		"conservation", "biodiversity", "emissions",
	},
	"biology": {
		"biology", "biological", "gene", "genes", "genetic", "genomic",
		"protein", "cell", "cells", "molecular", "species", "evolution",
		"microbial", "organism",
	},
}

// aspectLexicon maps the facet a query is asking about to cue terms found
// in abstracts.
var aspectLexicon = map[string][]string{
	"method": {
		"method", "methods", "methodology", "approach", "technique",
		"techniques", "procedure", "protocol", "design", "instrument",
		"measurement", "survey", "questionnaire", "interview", "interviews",
		"analysis", "qmethod",
	},
	"outcome": {
		"outcome", "outcomes", "effect", "effects", "impact", "impacts",
		"efficacy", "effectiveness", "result", "results", "improvement",
		"association", "change", "reduction",
	},
	"population": {
		"population", "populations", "participants", "sample", "cohort",
		"children", "adolescents", "adults", "elderly", "women", "men",
		"patients", "students", "respondents",
	},
	"theory": {
		"theory", "theories", "theoretical", "framework", "frameworks",
		"concept", "conceptual", "model", "paradigm", "perspective",
		"construct",
	},
}

// inferBest returns the lexicon entry with the highest term overlap
// against the token set, or "" when nothing overlaps. Ties resolve to the
// lexicographically first name so inference is deterministic.
func inferBest(lexicon map[string][]string, tokens []string) string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}

	best, bestHits := "", 0
	for name, terms := range lexicon {
		hits := 0
		for _, term := range terms {
			if set[term] {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && name < best) {
			best, bestHits = name, hits
		}
	}
	if bestHits == 0 {
		return ""
	}
	return best
}

// candidateText gathers the candidate fields used for domain and aspect
// signals, with venue subject areas from the metrics store appended when
// available.
func candidateText(c types.Candidate, lookup MetricsLookup) (strong string, abstract string) {
	parts := []string{c.Title, c.Venue, strings.Join(c.Keywords, " ")}
	if lookup != nil && c.Venue != "" {
		if m, ok := lookup.Lookup(c.Venue); ok {
			parts = append(parts, strings.Join(m.Subjects, " "))
		}
	}
	return strings.Join(parts, " "), c.Abstract
}

// matchDomain reports whether the candidate's subject signals overlap the
// query's inferred domain. A hit in the title, venue, keywords, or venue
// subject areas is decisive; abstract hits need corroboration since
// domain words appear incidentally in running text.
func matchDomain(c types.Candidate, domain string, lookup MetricsLookup) bool {
	terms := domainLexicon[domain]
	if len(terms) == 0 {
		return false
	}
	strong, abstract := candidateText(c, lookup)
	return countHits(terms, strong) >= 1 || countHits(terms, abstract) >= 2
}

// matchAspect reports whether the candidate's text shows the facet cue
// the query asks about. Aspect cues are explicit words, so a single hit
// anywhere suffices.
func matchAspect(c types.Candidate, aspect string) bool {
	terms := aspectLexicon[aspect]
	if len(terms) == 0 {
		return false
	}
	combined := c.Title + " " + c.Abstract + " " + strings.Join(c.Keywords, " ")
	return countHits(terms, combined) >= 1
}

func countHits(terms []string, text string) int {
	set := make(map[string]bool)
	for _, t := range tokenize(text) {
		set[t] = true
	}
	hits := 0
	for _, term := range terms {
		if set[term] {
			hits++
		}
	}
	return hits
}

// filterByDomainAspect annotates DomainMatch and AspectMatch and drops
// candidates matching neither. Passing either one is enough: both
// classifications are noisy heuristics, and requiring both eliminates too
// many true positives. A query with no inferable domain or aspect imposes
// no constraint and the whole set passes.
func filterByDomainAspect(cands []types.ScoredCandidate, profile types.QueryProfile, lookup MetricsLookup) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(cands))

	if profile.Domain == "" && profile.Aspect == "" {
		for _, c := range cands {
			c.DomainMatch = true
			c.AspectMatch = true
			out = append(out, c)
		}
		return out
	}

	for _, c := range cands {
		c.DomainMatch = profile.Domain != "" && matchDomain(c.Candidate, profile.Domain, lookup)
		c.AspectMatch = profile.Aspect != "" && matchAspect(c.Candidate, profile.Aspect)
		if c.DomainMatch || c.AspectMatch {
			out = append(out, c)
		}
	}
	return out
}
