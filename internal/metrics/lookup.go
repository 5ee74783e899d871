// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Snapshot is a read-only in-memory copy of the journals table, keyed by
// normalized venue name. The funnel resolves every candidate's venue
// against it, so lookups must not touch the database.
type Snapshot struct {
	byVenue map[string]types.JournalMetrics
}

// Lookup resolves a venue name to its journal metrics. It satisfies the
// funnel's MetricsLookup interface.
func (s *Snapshot) Lookup(venue string) (types.JournalMetrics, bool) {
	m, ok := s.byVenue[normalizeVenue(venue)]
	return m, ok
}

// Len returns the number of venues in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.byVenue)
}

// LoadSnapshot reads the whole journals table into memory.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized, venue, impact_factor, h_index, quartile, subjects FROM journals`)
	if err != nil {
		return nil, fmt.Errorf("loading journal metrics: %w", err)
	}
	defer rows.Close()

	snap := &Snapshot{byVenue: make(map[string]types.JournalMetrics)}
	for rows.Next() {
		var normalized string
		m, err := scanJournal(rows, &normalized)
		if err != nil {
			return nil, err
		}
		snap.byVenue[normalized] = m
	}
	return snap, rows.Err()
}

// LookupVenue resolves a single venue directly against the database. The
// boolean reports whether the venue is known.
func (s *Store) LookupVenue(ctx context.Context, venue string) (types.JournalMetrics, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT venue, impact_factor, h_index, quartile, subjects
		 FROM journals WHERE normalized = ?`, normalizeVenue(venue))

	var (
		m            types.JournalMetrics
		impactFactor sql.NullFloat64
		hIndex       sql.NullInt64
		quartile     sql.NullString
		subjectsJSON sql.NullString
	)
	err := row.Scan(&m.Venue, &impactFactor, &hIndex, &quartile, &subjectsJSON)
	if err == sql.ErrNoRows {
		return types.JournalMetrics{}, false, nil
	}
	if err != nil {
		return types.JournalMetrics{}, false, fmt.Errorf("looking up venue: %w", err)
	}

	fillJournal(&m, impactFactor, hIndex, quartile, subjectsJSON)
	return m, true, nil
}

// SearchVenues runs a full-text search over venue names, ranked by FTS5
// relevance. A non-positive limit defaults to 20.
func (s *Store) SearchVenues(ctx context.Context, query string, limit int) ([]types.JournalMetrics, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT j.normalized, j.venue, j.impact_factor, j.h_index, j.quartile, j.subjects
		 FROM journals_fts
		 JOIN journals j ON j.rowid = journals_fts.rowid
		 WHERE journals_fts MATCH ?
		 ORDER BY journals_fts.rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching venues: %w", err)
	}
	defer rows.Close()

	var results []types.JournalMetrics
	for rows.Next() {
		var normalized string
		m, err := scanJournal(rows, &normalized)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func scanJournal(rows *sql.Rows, normalized *string) (types.JournalMetrics, error) {
	var (
		m            types.JournalMetrics
		impactFactor sql.NullFloat64
		hIndex       sql.NullInt64
		quartile     sql.NullString
		subjectsJSON sql.NullString
	)
	if err := rows.Scan(normalized, &m.Venue, &impactFactor, &hIndex, &quartile, &subjectsJSON); err != nil {
		return types.JournalMetrics{}, fmt.Errorf("scanning journal row: %w", err)
	}
	fillJournal(&m, impactFactor, hIndex, quartile, subjectsJSON)
	return m, nil
}

func fillJournal(m *types.JournalMetrics, impactFactor sql.NullFloat64, hIndex sql.NullInt64, quartile, subjectsJSON sql.NullString) {
	if impactFactor.Valid {
		m.ImpactFactor = impactFactor.Float64
	}
	if hIndex.Valid {
		m.HIndex = int(hIndex.Int64)
	}
	if quartile.Valid {
		m.Quartile = quartile.String
	}
	if subjectsJSON.Valid {
		json.Unmarshal([]byte(subjectsJSON.String), &m.Subjects)
	}
}

// normalizeVenue canonicalizes a venue name for matching. Sources disagree
// on case, articles and ampersands for the same journal.
func normalizeVenue(venue string) string {
	venue = strings.ToLower(venue)
	venue = strings.ReplaceAll(venue, "&", " and ")
	venue = strings.Join(strings.Fields(venue), " ")
	venue = strings.TrimPrefix(venue, "the ")
	return strings.TrimSuffix(venue, ".")
}
