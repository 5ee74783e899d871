// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// JournalMetrics holds the prestige indicators for one venue, as loaded
// from the journal metrics store. The quality scorer weights prestige most
// heavily when these are available for a candidate's venue.
type JournalMetrics struct {
	// Venue is the journal or conference name as keyed in the store.
	Venue string `json:"venue" yaml:"venue"`

	// ImpactFactor is the journal impact factor. Zero means unreported.
	ImpactFactor float64 `json:"impactFactor" yaml:"impact_factor"`

	// HIndex is the journal-level h-index. Zero means unreported.
	HIndex int `json:"hIndex" yaml:"h_index"`

	// Quartile is the journal ranking quartile: "Q1" through "Q4", or
	// empty when unranked.
	Quartile string `json:"quartile" yaml:"quartile"`

	// Subjects lists the venue's subject areas, used for candidate domain
	// inference.
	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
}
