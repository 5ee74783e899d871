// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Cognitive-Behavioral Therapy", []string{"cognitive", "behavioral", "therapy"}},
		{"the effects of stress on memory", []string{"effects", "stress", "memory"}},
		{"Q-methodology in 2024", []string{"methodology", "2024"}},
		{"", nil},
		{"a an the of", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueTerms(t *testing.T) {
	got := uniqueTerms("stress and stress reduction under stress")
	want := []string{"stress", "reduction", "under"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueTerms = %v, want %v", got, want)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Attention Is All You Need", "attention is all you need"},
		{"attention is all you need!", "attention is all you need"},
		{"  BERT:  Pre-training  ", "bert pretraining"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeTitle(tt.input); got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.1234/ABC", "10.1234/abc"},
		{"https://doi.org/10.1234/abc", "10.1234/abc"},
		{"http://dx.doi.org/10.1234/Abc", "10.1234/abc"},
		{"DOI:10.1234/abc", "10.1234/abc"},
		{"  10.1234/abc  ", "10.1234/abc"},
		{"arXiv:2301.07041", "arxiv:2301.07041"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeIdentifier(tt.input); got != tt.want {
				t.Errorf("normalizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
