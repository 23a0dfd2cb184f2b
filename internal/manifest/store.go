// Package manifest records extraction rounds in a SQLite database so past
// runs can be inspected: which elements were extracted, from where, and
// whether their source changed.
package manifest

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/xxh3"

	"github.com/mvp-joe/centrifuge/internal/processor"
)

// timeFormat is fixed-width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the manifest database. It implements processor.Recorder.
type Store struct {
	db *sql.DB
}

// RoundRow is one recorded round.
type RoundRow struct {
	ID          string    `json:"id"`
	Seq         int       `json:"seq"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Files       int       `json:"files"`
	Annotations int       `json:"annotations"`
	Elements    int       `json:"elements"`
	Misses      int       `json:"misses"`
	Failures    int       `json:"failures"`
}

// RecordRow is one extracted element of a round.
type RecordRow struct {
	RoundID    string `json:"round_id"`
	Annotation string `json:"annotation"`
	ElementID  string `json:"element_id"`
	Kind       string `json:"kind"`
	FilePath   string `json:"file_path"`
	Line       int    `json:"line"`
	SourceHash string `json:"source_hash"`
	SourceLen  int    `json:"source_len"`
}

// Filter narrows Records. Zero fields match everything; Limit 0 means no
// limit.
type Filter struct {
	Annotation string
	File       string
	RoundID    string
	Limit      int
}

// Open opens or creates the manifest database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	// Every pooled connection needs foreign keys for ON DELETE CASCADE.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database, creating the schema if needed. The
// caller keeps ownership of db.
func NewStore(db *sql.DB) (*Store, error) {
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	// Enable foreign keys (required for cascade deletes)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	switch version {
	case "0":
		if err := CreateSchema(db); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	case SchemaVersion:
	default:
		return nil, fmt.Errorf("unsupported manifest schema version %s (want %s)", version, SchemaVersion)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRound stores a round and its extractions atomically.
func (s *Store) RecordRound(ctx context.Context, summary *processor.RoundSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	stats := summary.Stats
	roundID := uuid.New().String()

	_, err = sq.Insert("rounds").
		Columns("round_id", "session_seq", "started_at", "finished_at", "files", "annotations", "elements", "misses", "failures").
		Values(
			roundID,
			stats.Round,
			stats.StartedAt.UTC().Format(timeFormat),
			stats.StartedAt.Add(stats.Duration).UTC().Format(timeFormat),
			len(summary.Files),
			stats.Annotations,
			stats.Elements,
			stats.Misses,
			stats.OpenFailures+stats.WriteFailures,
		).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}

	for _, ex := range summary.Extractions {
		_, err := sq.Insert("records").
			Columns("round_id", "annotation", "element_id", "kind", "file_path", "line", "source_hash", "source_len").
			Values(
				roundID,
				ex.Annotation,
				ex.Record.ID,
				ex.Kind.String(),
				ex.Record.File,
				ex.Line,
				HashSource(ex.Record.Source),
				len(ex.Record.Source),
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", ex.Record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rounds returns the most recent rounds first.
func (s *Store) Rounds(ctx context.Context, limit int) ([]RoundRow, error) {
	query := sq.Select("round_id", "session_seq", "started_at", "finished_at", "files", "annotations", "elements", "misses", "failures").
		From("rounds").
		OrderBy("started_at DESC", "rowid DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundRow
	for rows.Next() {
		var r RoundRow
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Seq, &started, &finished, &r.Files, &r.Annotations, &r.Elements, &r.Misses, &r.Failures); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeFormat, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Records returns extracted elements matching f, newest round first and in
// extraction order within a round.
func (s *Store) Records(ctx context.Context, f Filter) ([]RecordRow, error) {
	query := sq.Select("r.round_id", "r.annotation", "r.element_id", "r.kind", "r.file_path", "r.line", "r.source_hash", "r.source_len").
		From("records r").
		Join("rounds ro ON ro.round_id = r.round_id").
		OrderBy("ro.started_at DESC", "r.record_id ASC")

	if f.Annotation != "" {
		query = query.Where(sq.Eq{"r.annotation": f.Annotation})
	}
	if f.File != "" {
		query = query.Where(sq.Eq{"r.file_path": f.File})
	}
	if f.RoundID != "" {
		query = query.Where(sq.Eq{"r.round_id": f.RoundID})
	}
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		if err := rows.Scan(&r.RoundID, &r.Annotation, &r.ElementID, &r.Kind, &r.FilePath, &r.Line, &r.SourceHash, &r.SourceLen); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep rounds. Records go with their round.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	newest := sq.Select("round_id").From("rounds").OrderBy("started_at DESC", "rowid DESC").Limit(uint64(keep))
	sub, args, err := newest.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build prune query: %w", err)
	}

	res, err := sq.Delete("rounds").
		Where("round_id NOT IN ("+sub+")", args...).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune rounds: %w", err)
	}
	return res.RowsAffected()
}

// HashSource returns the hex xxh3 digest of an extracted source.
func HashSource(source string) string {
	h := xxh3.New()
	_, _ = h.WriteString(source)
	return hex.EncodeToString(h.Sum(nil))
}
