// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists per-PMID enrichment lookups in a SQLite database
// shared across projects. PMCID and DOI assignments almost never change,
// so repeated searches on overlapping topics skip the E-utilities round
// trips for papers seen before.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "enrichment.db"

// Entry is one cached enrichment lookup. Empty PMCID or DOI means the
// lookup ran and found nothing, which is itself worth remembering.
type Entry struct {
	PMID      string
	PMCID     string
	DOI       string
	FetchedAt time.Time
}

// Store is the enrichment cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database under cacheDir.
func Open(cacheDir string) (*Store, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS enrichment (
		pmid TEXT PRIMARY KEY,
		pmcid TEXT,
		doi TEXT,
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Get looks up one PMID. The second return value reports whether the
// entry was present.
func (s *Store) Get(ctx context.Context, pmid string) (Entry, bool, error) {
	var entry Entry
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT pmid, pmcid, doi, fetched_at FROM enrichment WHERE pmid = ?`, pmid,
	).Scan(&entry.PMID, &entry.PMCID, &entry.DOI, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	entry.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	return entry, true, nil
}

// GetMany looks up a batch of PMIDs, returning only the entries present.
func (s *Store) GetMany(ctx context.Context, pmids []string) (map[string]Entry, error) {
	entries := make(map[string]Entry, len(pmids))
	for _, pmid := range pmids {
		entry, ok, err := s.Get(ctx, pmid)
		if err != nil {
			return nil, err
		}
		if ok {
			entries[pmid] = entry
		}
	}
	return entries, nil
}

// Put inserts or replaces one enrichment entry.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	fetchedAt := entry.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment (pmid, pmcid, doi, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(pmid) DO UPDATE SET
			pmcid=excluded.pmcid, doi=excluded.doi, fetched_at=excluded.fetched_at`,
		entry.PMID, entry.PMCID, entry.DOI, fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// PutMany writes a batch of entries in one transaction.
func (s *Store) PutMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO enrichment (pmid, pmcid, doi, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(pmid) DO UPDATE SET
			pmcid=excluded.pmcid, doi=excluded.doi, fetched_at=excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, entry := range entries {
		fetchedAt := now
		if !entry.FetchedAt.IsZero() {
			fetchedAt = entry.FetchedAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx, entry.PMID, entry.PMCID, entry.DOI, fetchedAt); err != nil {
			return fmt.Errorf("writing cache entry %s: %w", entry.PMID, err)
		}
	}
	return tx.Commit()
}
