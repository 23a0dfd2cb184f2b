package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/centrifuge/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for sink:
// - Ensure twice returns the same sink and opens the artifact once
// - Ensure names the artifact after the annotation's simple name
// - Ensure rejects a second annotation with the same simple name
// - Ensure surfaces store failures as *OpenError and does not register the sink
// - Append keeps order and replaces records with a known id in place
// - Forget removes records of a file and keeps ids consistent
// - Flush writes "// id\nsource\n\n" records and rewrites on every call
// - Flush surfaces store failures as *WriteError
// - Close flushes every sink and joins failures
// - FileStore creates <out>/centrifuge/<Name> and replaces content atomically

type fakeStore struct {
	opens    map[string]int
	writes   map[string][]string
	openErr  error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{opens: map[string]int{}, writes: map[string][]string{}}
}

func (f *fakeStore) Open(name string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opens[name]++
	return nil
}

func (f *fakeStore) Write(name string, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes[name] = append(f.writes[name], string(data))
	return nil
}

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	reg := NewRegistry(store)

	first, err := reg.Ensure("com.example.Mark")
	require.NoError(t, err)
	second, err := reg.Ensure("com.example.Mark")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.opens["Mark"])
	assert.Equal(t, "Mark", first.Name())
	assert.Equal(t, "com.example.Mark", first.Annotation())

	found, ok := reg.Lookup("com.example.Mark")
	require.True(t, ok)
	assert.Same(t, first, found)
	assert.Len(t, reg.Sinks(), 1)
}

func TestRegistry_SimpleNameCollision(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newFakeStore())
	_, err := reg.Ensure("a.Mark")
	require.NoError(t, err)

	_, err = reg.Ensure("b.Mark")
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, ErrNameClaimed)
	assert.Equal(t, "b.Mark", openErr.Annotation)
	assert.Contains(t, err.Error(), "a.Mark")

	_, ok := reg.Lookup("b.Mark")
	assert.False(t, ok)
}

func TestRegistry_OpenFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.openErr = errors.New("disk full")
	reg := NewRegistry(store)

	_, err := reg.Ensure("p.Mark")
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "Mark", openErr.Name)
	assert.Empty(t, reg.Sinks())

	// A later attempt retries the store.
	store.openErr = nil
	_, err = reg.Ensure("p.Mark")
	require.NoError(t, err)
	assert.Equal(t, 1, store.opens["Mark"])
}

func TestSink_AppendAndFlush(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	reg := NewRegistry(store)
	s, err := reg.Ensure("P.Mark")
	require.NoError(t, err)

	s.Append(extract.Record{ID: "P.C", Source: "", File: "C.java"})
	s.Append(extract.Record{ID: "P.C#f()", Source: "{ return 1; }", File: "C.java"})
	require.NoError(t, s.Flush())

	want := "// P.C\n\n\n// P.C#f()\n{ return 1; }\n\n"
	assert.Equal(t, []string{want}, store.writes["Mark"])

	// A second flush rewrites the full buffer instead of appending a copy.
	require.NoError(t, s.Flush())
	assert.Equal(t, []string{want, want}, store.writes["Mark"])
	assert.Equal(t, 2, s.Flushes())
}

func TestSink_AppendReplacesSameID(t *testing.T) {
	t.Parallel()

	s, err := NewRegistry(newFakeStore()).Ensure("p.Mark")
	require.NoError(t, err)

	s.Append(extract.Record{ID: "a", Source: "old"})
	s.Append(extract.Record{ID: "b", Source: "b"})
	s.Append(extract.Record{ID: "a", Source: "new"})

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "new", recs[0].Source)
	assert.Equal(t, "b", recs[1].ID)
}

func TestSink_Forget(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newFakeStore())
	s, err := reg.Ensure("p.Mark")
	require.NoError(t, err)

	s.Append(extract.Record{ID: "a", File: "A.java"})
	s.Append(extract.Record{ID: "b", File: "B.java"})
	s.Append(extract.Record{ID: "c", File: "A.java"})

	assert.Equal(t, 2, reg.Forget("A.java"))
	assert.Equal(t, 0, reg.Forget("Missing.java"))
	require.Equal(t, 1, s.Len())

	// The index follows the compacted buffer.
	s.Append(extract.Record{ID: "b", Source: "updated", File: "B.java"})
	s.Append(extract.Record{ID: "a", File: "A.java"})
	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "updated", recs[0].Source)
	assert.Equal(t, "a", recs[1].ID)
}

func TestSink_FlushFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	s, err := NewRegistry(store).Ensure("p.Mark")
	require.NoError(t, err)
	s.Append(extract.Record{ID: "a"})

	store.writeErr = errors.New("read-only file system")
	err = s.Flush()
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "p.Mark", writeErr.Annotation)
	assert.Equal(t, 0, s.Flushes())
	assert.Equal(t, 1, s.Len())
}

func TestRegistry_CloseFlushesAll(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	reg := NewRegistry(store)
	for _, qn := range []string{"p.One", "p.Two"} {
		s, err := reg.Ensure(qn)
		require.NoError(t, err)
		s.Append(extract.Record{ID: qn})
	}

	require.NoError(t, reg.Close())
	assert.Equal(t, []string{"// p.One\n\n\n"}, store.writes["One"])
	assert.Equal(t, []string{"// p.Two\n\n\n"}, store.writes["Two"])

	store.writeErr = errors.New("boom")
	err := reg.Close()
	require.Error(t, err)
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestFileStore_OpenAndWrite(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	store := NewFileStore(out, "")
	assert.Equal(t, filepath.Join(out, "centrifuge"), store.Dir())

	require.NoError(t, store.Open("Mark"))
	data, err := os.ReadFile(filepath.Join(out, "centrifuge", "Mark"))
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, store.Write("Mark", []byte("first")))
	require.NoError(t, store.Write("Mark", []byte("second")))
	data, err = os.ReadFile(store.Path("Mark"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files are left behind.
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_OpenTruncatesPreviousRun(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	store := NewFileStore(out, "custom")
	require.NoError(t, os.MkdirAll(store.Dir(), 0755))
	require.NoError(t, os.WriteFile(store.Path("Mark"), []byte("stale"), 0644))

	require.NoError(t, store.Open("Mark"))
	data, err := os.ReadFile(filepath.Join(out, "custom", "Mark"))
	require.NoError(t, err)
	assert.Empty(t, data)
}
