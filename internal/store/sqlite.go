package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobmatch/internal/model"
)

// State keys in the key/value table.
const (
	keyShortlist   = "shortlist"
	keySources     = "sources"
	keyKeywords    = "keywords"
	keyLastUpdated = "last_updated"
	keyLastError   = "last_error"
)

// SQLiteStore persists the job collection and run state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs and state tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id            TEXT PRIMARY KEY,
			source        TEXT NOT NULL,
			company       TEXT,
			title         TEXT,
			location      TEXT,
			url           TEXT NOT NULL,
			description   TEXT,
			posted_at     TEXT,
			first_seen_at TEXT NOT NULL,
			score         INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_first_seen ON jobs(first_seen_at)`,
		`CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// LoadJobs returns the full stored job collection.
func (s *SQLiteStore) LoadJobs() ([]model.Job, error) {
	rows, err := s.db.Query(`SELECT id, source, company, title, location, url,
		description, posted_at, first_seen_at, score FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var postedAt sql.NullString
		var firstSeen string
		if err := rows.Scan(&j.ID, &j.Source, &j.Company, &j.Title, &j.Location,
			&j.URL, &j.Description, &postedAt, &firstSeen, &j.Score); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		if postedAt.Valid {
			if t, err := time.Parse(time.RFC3339, postedAt.String); err == nil {
				j.PostedAt = &t
			}
		}
		if t, err := time.Parse(time.RFC3339, firstSeen); err == nil {
			j.FirstSeen = t
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ReplaceAll swaps the full job collection and shortlist in one transaction,
// stamps lastUpdated and clears lastError.
func (s *SQLiteStore) ReplaceAll(jobs []model.Job, shortlist []string, ranAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM jobs`); err != nil {
		return fmt.Errorf("clearing jobs: %w", err)
	}

	insert, err := tx.Prepare(`INSERT INTO jobs
		(id, source, company, title, location, url, description, posted_at, first_seen_at, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for _, j := range jobs {
		var postedAt any
		if j.PostedAt != nil {
			postedAt = j.PostedAt.UTC().Format(time.RFC3339)
		}
		if _, err := insert.Exec(j.ID, j.Source, j.Company, j.Title, j.Location,
			j.URL, j.Description, postedAt, j.FirstSeen.UTC().Format(time.RFC3339), j.Score); err != nil {
			return fmt.Errorf("inserting job %s: %w", j.ID, err)
		}
	}

	shortlistJSON, err := json.Marshal(shortlist)
	if err != nil {
		return fmt.Errorf("marshaling shortlist: %w", err)
	}
	if err := setStateTx(tx, keyShortlist, string(shortlistJSON)); err != nil {
		return err
	}
	if err := setStateTx(tx, keyLastUpdated, ranAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM state WHERE key = ?`, keyLastError); err != nil {
		return fmt.Errorf("clearing last error: %w", err)
	}

	return tx.Commit()
}

// RecordError persists a run-level failure without touching jobs.
func (s *SQLiteStore) RecordError(msg string) error {
	return s.setState(keyLastError, msg)
}

// LoadShortlist returns the stored shortlist job ids.
func (s *SQLiteStore) LoadShortlist() ([]string, error) {
	raw, ok, err := s.getState(keyShortlist)
	if err != nil || !ok {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("parsing shortlist: %w", err)
	}
	return ids, nil
}

// LoadSources returns the stored board source list.
func (s *SQLiteStore) LoadSources() (model.SourceList, error) {
	raw, ok, err := s.getState(keySources)
	if err != nil || !ok {
		return model.SourceList{}, err
	}
	var sources model.SourceList
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return model.SourceList{}, fmt.Errorf("parsing sources: %w", err)
	}
	return sources, nil
}

// SaveSources persists the board source list.
func (s *SQLiteStore) SaveSources(sources model.SourceList) error {
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}
	return s.setState(keySources, string(raw))
}

// LoadKeywords returns the cached keyword set with its freshness timestamp.
func (s *SQLiteStore) LoadKeywords() (model.KeywordSet, error) {
	raw, ok, err := s.getState(keyKeywords)
	if err != nil || !ok {
		return model.KeywordSet{}, err
	}
	var set model.KeywordSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return model.KeywordSet{}, fmt.Errorf("parsing keywords: %w", err)
	}
	return set, nil
}

// SaveKeywords persists the keyword set and its extraction timestamp.
func (s *SQLiteStore) SaveKeywords(set model.KeywordSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	return s.setState(keyKeywords, string(raw))
}

// Status returns the last run time, last error, and stored job count.
func (s *SQLiteStore) Status() (model.RunStatus, error) {
	var status model.RunStatus

	if raw, ok, err := s.getState(keyLastUpdated); err != nil {
		return status, err
	} else if ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			status.LastUpdated = &t
		}
	}

	if raw, ok, err := s.getState(keyLastError); err != nil {
		return status, err
	} else if ok {
		status.LastError = raw
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&status.JobCount); err != nil {
		return status, fmt.Errorf("counting jobs: %w", err)
	}
	return status, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) setState(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting state %s: %w", key, err)
	}
	return nil
}

func setStateTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting state %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getState(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting state %s: %w", key, err)
	}
	return value, true, nil
}
