// Package sink manages the output artifacts extraction records are written
// to: one sink per marked annotation type, opened at most once per registry.
//
// A sink buffers every record it receives for the registry's lifetime. Flush
// rewrites the artifact from the whole buffer, so flushing after every round
// and flushing once at shutdown produce the same artifact.
package sink

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/centrifuge/internal/extract"
)

// Registry owns the sinks of one extraction session. It is not safe for
// concurrent use; the processor drives it from a single goroutine.
type Registry struct {
	store  Store
	sinks  map[string]*Sink  // annotation qualified name -> sink
	claims map[string]string // artifact name -> annotation qualified name
	order  []*Sink
}

// NewRegistry creates an empty registry backed by store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:  store,
		sinks:  make(map[string]*Sink),
		claims: make(map[string]string),
	}
}

// Ensure returns the sink for the annotation, opening its artifact on first
// use. Later calls return the same sink without touching the store.
func (r *Registry) Ensure(annotation string) (*Sink, error) {
	if s, ok := r.sinks[annotation]; ok {
		return s, nil
	}

	name := extract.AnnotationType{QualifiedName: annotation}.SimpleName()
	if owner, ok := r.claims[name]; ok {
		return nil, &OpenError{Annotation: annotation, Name: name, Err: fmt.Errorf("%w by %s", ErrNameClaimed, owner)}
	}

	if err := r.store.Open(name); err != nil {
		return nil, &OpenError{Annotation: annotation, Name: name, Err: err}
	}

	s := &Sink{
		annotation: annotation,
		name:       name,
		store:      r.store,
		index:      make(map[string]int),
	}
	r.sinks[annotation] = s
	r.claims[name] = annotation
	r.order = append(r.order, s)
	return s, nil
}

// Lookup returns the sink for an annotation if it has been opened.
func (r *Registry) Lookup(annotation string) (*Sink, bool) {
	s, ok := r.sinks[annotation]
	return s, ok
}

// Sinks returns every open sink in the order they were opened.
func (r *Registry) Sinks() []*Sink {
	out := make([]*Sink, len(r.order))
	copy(out, r.order)
	return out
}

// Forget drops the records of the given source files from every sink and
// returns how many records were removed.
func (r *Registry) Forget(files ...string) int {
	removed := 0
	for _, s := range r.order {
		for _, f := range files {
			removed += s.Forget(f)
		}
	}
	return removed
}

// Close performs the final flush of every sink.
func (r *Registry) Close() error {
	return r.Flush()
}

// Flush writes every sink. All sinks are attempted; failures are joined.
func (r *Registry) Flush() error {
	var errs []error
	for _, s := range r.order {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
