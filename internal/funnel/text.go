// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"strings"
	"unicode"
)

// stopTerms are common English words carrying no retrieval signal. Tokens
// in this set are dropped before BM25 scoring, complexity classification,
// and domain/aspect inference.
var stopTerms = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "between": true, "by": true, "do": true, "does": true,
	"for": true, "from": true, "has": true, "have": true, "how": true,
	"in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "that": true, "the": true,
	"their": true, "this": true, "to": true, "was": true, "were": true,
	"what": true, "when": true, "which": true, "with": true,
}

// tokenize lowercases s and splits it into letter/digit runs, dropping
// stop words and single-character tokens.
func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopTerms[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// uniqueTerms returns the distinct tokens of s in first-seen order.
func uniqueTerms(s string) []string {
	tokens := tokenize(s)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// normalizeTitle reduces a title to lowercase letters, digits, and single
// spaces so near-identical titles from different sources compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeIdentifier canonicalizes a DOI or source ID for equality-based
// dedup: lowercased, trimmed, with resolver prefixes stripped.
func normalizeIdentifier(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range []string{
		"https://doi.org/",
		"http://doi.org/",
		"https://dx.doi.org/",
		"http://dx.doi.org/",
		"doi:",
	} {
		if strings.HasPrefix(id, prefix) {
			id = strings.TrimPrefix(id, prefix)
			break
		}
	}
	return id
}
