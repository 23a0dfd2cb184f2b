package manifest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/centrifuge/internal/extract"
	"github.com/mvp-joe/centrifuge/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for manifest:
// - CreateSchema is idempotent and records the schema version
// - RecordRound stores the round and one row per extraction
// - Records filters by annotation, file and round and honours the limit
// - Rounds returns newest first with parsed timestamps
// - Prune keeps the newest rounds and cascades to their records
// - Open creates the database file and reopens it with data intact
// - Open enables foreign keys on every pooled connection, so Prune cascades on any of them
// - HashSource is stable and distinguishes sources

func summary(round int, started time.Time, extractions ...processor.Extraction) *processor.RoundSummary {
	return &processor.RoundSummary{
		Stats: processor.RoundStats{
			Round:         round,
			Annotations:   1,
			Elements:      len(extractions),
			Misses:        1,
			WriteFailures: 1,
			StartedAt:     started,
			Duration:      25 * time.Millisecond,
		},
		Files:       []string{"src/P/C.java"},
		Extractions: extractions,
	}
}

func extraction(annotation, id, file, source string, kind extract.Kind, line int) processor.Extraction {
	return processor.Extraction{
		Annotation: annotation,
		Kind:       kind,
		Line:       line,
		Record:     extract.Record{ID: id, Source: source, File: file},
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "0", version)

	require.NoError(t, CreateSchema(db))
	require.NoError(t, CreateSchema(db))

	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestRecordRound_StoresRoundAndRecords(t *testing.T) {
	t.Parallel()

	s := NewTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := s.RecordRound(ctx, summary(1, started,
		extraction("P.Mark", "P.C", "src/P/C.java", "", extract.KindClass, 2),
		extraction("P.Mark", "P.C#f()", "src/P/C.java", "{ return 1; }", extract.KindMethod, 4),
	))
	require.NoError(t, err)

	rounds, err := s.Rounds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	r := rounds[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 1, r.Seq)
	assert.True(t, started.Equal(r.StartedAt))
	assert.True(t, started.Add(25*time.Millisecond).Equal(r.FinishedAt))
	assert.Equal(t, 1, r.Files)
	assert.Equal(t, 2, r.Elements)
	assert.Equal(t, 1, r.Misses)
	assert.Equal(t, 1, r.Failures)

	records, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, RecordRow{
		RoundID:    r.ID,
		Annotation: "P.Mark",
		ElementID:  "P.C#f()",
		Kind:       "method",
		FilePath:   "src/P/C.java",
		Line:       4,
		SourceHash: HashSource("{ return 1; }"),
		SourceLen:  13,
	}, records[1])
	assert.Equal(t, "P.C", records[0].ElementID)
}

func TestRecords_Filters(t *testing.T) {
	t.Parallel()

	s := NewTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordRound(ctx, summary(1, t0,
		extraction("P.Mark", "P.C", "C.java", "static {}", extract.KindClass, 1),
		extraction("P.Core", "P.D#g()", "D.java", "{}", extract.KindMethod, 3),
	)))
	require.NoError(t, s.RecordRound(ctx, summary(2, t0.Add(time.Minute),
		extraction("P.Mark", "P.C", "C.java", "static { x(); }", extract.KindClass, 1),
	)))

	byAnnotation, err := s.Records(ctx, Filter{Annotation: "P.Mark"})
	require.NoError(t, err)
	require.Len(t, byAnnotation, 2)
	assert.Equal(t, HashSource("static { x(); }"), byAnnotation[0].SourceHash, "newest round first")
	assert.NotEqual(t, byAnnotation[0].SourceHash, byAnnotation[1].SourceHash)

	byFile, err := s.Records(ctx, Filter{File: "D.java"})
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, "P.D#g()", byFile[0].ElementID)

	limited, err := s.Records(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	rounds, err := s.Rounds(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].Seq)

	byRound, err := s.Records(ctx, Filter{RoundID: rounds[0].ID})
	require.NoError(t, err)
	require.Len(t, byRound, 1)
	assert.Equal(t, "P.C", byRound[0].ElementID)
}

func TestPrune_KeepsNewest(t *testing.T) {
	t.Parallel()

	s := NewTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.RecordRound(ctx, summary(i, t0.Add(time.Duration(i)*time.Minute),
			extraction("P.Mark", "P.C", "C.java", "", extract.KindClass, 1),
		)))
	}

	deleted, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rounds, err := s.Rounds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 3, rounds[0].Seq)

	records, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 1, "records of pruned rounds are deleted with them")
}

func TestOpen_Persists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".centrifuge", "manifest.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordRound(ctx, summary(1, time.Now(),
		extraction("P.Mark", "P.C", "C.java", "", extract.KindClass, 1),
	)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	// Hold one connection so the pool has to open another.
	held, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	other, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer other.Close()

	for _, conn := range []*sql.Conn{held, other} {
		var enabled int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}
	require.NoError(t, other.Close())
	require.NoError(t, held.Close())

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 2; i++ {
		require.NoError(t, s.RecordRound(ctx, summary(i, t0.Add(time.Duration(i)*time.Minute),
			extraction("P.Mark", "P.C", "C.java", "", extract.KindClass, 1),
		)))
	}
	_, err = s.Prune(ctx, 1)
	require.NoError(t, err)

	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&rows))
	assert.Equal(t, 1, rows, "no orphaned records")
}

func TestHashSource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, HashSource("{ return 1; }"), HashSource("{ return 1; }"))
	assert.NotEqual(t, HashSource("{ return 1; }"), HashSource("{ return 2; }"))
	assert.Len(t, HashSource(""), 16)
}
