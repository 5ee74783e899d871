// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics persists journal prestige indicators in SQLite and serves
// venue lookups for the funnel's quality scorer and domain inference.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Store manages the journal metrics SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the journal metrics database at cfg.DBPath,
// creating the schema if it does not exist.
func NewStore(cfg types.MetricsConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("metrics config: db_path is required")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating metrics directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS journals (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			normalized TEXT NOT NULL UNIQUE,
			venue TEXT NOT NULL,
			impact_factor REAL,
			h_index INTEGER,
			quartile TEXT,
			subjects TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_quartile ON journals(quartile)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source_file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='journals_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE journals_fts USING fts5(venue, content=journals, content_rowid=rowid)`,
			`CREATE TRIGGER journals_ai AFTER INSERT ON journals BEGIN
				INSERT INTO journals_fts(rowid, venue) VALUES (new.rowid, new.venue);
			END`,
			`CREATE TRIGGER journals_ad AFTER DELETE ON journals BEGIN
				INSERT INTO journals_fts(journals_fts, rowid, venue) VALUES('delete', old.rowid, old.venue);
			END`,
			`CREATE TRIGGER journals_au AFTER UPDATE ON journals BEGIN
				INSERT INTO journals_fts(journals_fts, rowid, venue) VALUES('delete', old.rowid, old.venue);
				INSERT INTO journals_fts(rowid, venue) VALUES (new.rowid, new.venue);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// seedFile is the YAML layout of one journal metrics seed file.
type seedFile struct {
	Journals []types.JournalMetrics `yaml:"journals"`
}

// IngestSummary holds counts from a metrics ingestion run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of seed files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads journal metrics seed YAML files from seedDir and upserts
// their entries. Unchanged files are detected by modification time and
// skipped, so re-running over a seed directory is cheap.
func (s *Store) Ingest(ctx context.Context, seedDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(seedDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading seed directory %s: %w", seedDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()
		filePath := filepath.Join(seedDir, name)

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source_file = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}
		if len(seed.Journals) == 0 {
			fmt.Fprintf(w, "failed  %s: no journal entries\n", name)
			summary.Failed++
			continue
		}

		if err := s.ingestFile(ctx, name, seed.Journals, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d journals)\n", name, len(seed.Journals))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d journals)\n", name, len(seed.Journals))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, name string, journals []types.JournalMetrics, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO journals (normalized, venue, impact_factor, h_index, quartile, subjects)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(normalized) DO UPDATE SET
			venue=excluded.venue, impact_factor=excluded.impact_factor,
			h_index=excluded.h_index, quartile=excluded.quartile,
			subjects=excluded.subjects`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, j := range journals {
		if strings.TrimSpace(j.Venue) == "" {
			return fmt.Errorf("journal entry without a venue name")
		}
		subjectsJSON, _ := json.Marshal(j.Subjects)
		_, err := stmt.ExecContext(ctx,
			normalizeVenue(j.Venue), j.Venue,
			j.ImpactFactor, j.HIndex, j.Quartile, string(subjectsJSON),
		)
		if err != nil {
			return fmt.Errorf("upserting journal %q: %w", j.Venue, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source_file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source_file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		name, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}
