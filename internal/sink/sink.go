package sink

import (
	"strings"

	"github.com/mvp-joe/centrifuge/internal/extract"
)

// Sink accumulates the records of one annotation type.
type Sink struct {
	annotation string
	name       string
	store      Store
	records    []extract.Record
	index      map[string]int // record id -> position in records
	flushes    int
}

// Annotation returns the qualified name of the annotation the sink serves.
func (s *Sink) Annotation() string { return s.annotation }

// Name returns the artifact name (the annotation's simple name).
func (s *Sink) Name() string { return s.name }

// Len returns the number of buffered records.
func (s *Sink) Len() int { return len(s.records) }

// Flushes returns how many times the sink has been written successfully.
func (s *Sink) Flushes() int { return s.flushes }

// Records returns a copy of the buffered records in order.
func (s *Sink) Records() []extract.Record {
	out := make([]extract.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Append buffers rec. A record whose id is already buffered replaces the old
// one in place, so re-extracting an element never duplicates it.
func (s *Sink) Append(rec extract.Record) {
	if i, ok := s.index[rec.ID]; ok {
		s.records[i] = rec
		return
	}
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
}

// Forget drops every buffered record that came from file.
func (s *Sink) Forget(file string) int {
	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.File == file {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return 0
	}

	// Clear the tail so dropped records can be collected.
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = extract.Record{}
	}
	s.records = kept
	s.reindex()
	return removed
}

// Content renders the buffered records in artifact format.
func (s *Sink) Content() string {
	var b strings.Builder
	for _, rec := range s.records {
		b.WriteString(rec.Format())
	}
	return b.String()
}

// Flush writes the whole buffer to the artifact, replacing what a previous
// flush wrote.
func (s *Sink) Flush() error {
	if err := s.store.Write(s.name, []byte(s.Content())); err != nil {
		return &WriteError{Annotation: s.annotation, Name: s.name, Err: err}
	}
	s.flushes++
	return nil
}

func (s *Sink) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		s.index[rec.ID] = i
	}
}
