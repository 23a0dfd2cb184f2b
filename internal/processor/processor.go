// Package processor drives extraction rounds: it decides which annotation
// types are extracted, feeds their elements through the scanners and flushes
// the resulting records to sinks.
//
// A Processor is one compilation session. Annotation types found to be marked
// for extraction stay tracked for the life of the Processor, even in rounds
// where their declaration is not visible.
package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mvp-joe/centrifuge/internal/extract"
	"github.com/mvp-joe/centrifuge/internal/sink"
)

// Processor runs rounds against a sink registry.
type Processor struct {
	registry *sink.Registry
	logger   *slog.Logger
	recorder Recorder

	mu      sync.Mutex
	state   State
	tracked []string        // marked annotation types in discovery order
	marked  map[string]bool // lookup for tracked
	rounds  int
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder registers a recorder that receives every round summary.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		p.recorder = r
	}
}

// New creates a processor writing to registry.
func New(registry *sink.Registry, opts ...Option) *Processor {
	p := &Processor{
		registry: registry,
		logger:   slog.Default(),
		marked:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tracked returns the annotation types marked for extraction so far.
func (p *Processor) Tracked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.tracked))
	copy(out, p.tracked)
	return out
}

// Process runs one round. Sink failures are logged and counted in the
// returned stats; they never fail the round. An error is returned only when
// the round could not start.
func (p *Processor) Process(ctx context.Context, env RoundEnv) (*RoundStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	round, ok := p.begin()
	if !ok {
		return nil, ErrRoundInProgress
	}
	defer p.setState(StateIdle)

	stats := &RoundStats{Round: round, StartedAt: time.Now()}
	summary := &RoundSummary{}
	if f, ok := env.(interface{ Files() []string }); ok {
		summary.Files = f.Files()
	}

	failed := p.discover(env, stats)

	// Collecting
	var touched []*sink.Sink
	for _, annotation := range p.tracked {
		elements := env.ElementsAnnotatedWith(annotation)
		if len(elements) == 0 || failed[annotation] {
			continue
		}

		s, err := p.registry.Ensure(annotation)
		if err != nil {
			stats.OpenFailures++
			p.logger.Error("skipping annotation for this round", "annotation", annotation, "error", err)
			continue
		}

		stats.Annotations++
		for _, el := range elements {
			rec := p.extract(el, env, stats)
			s.Append(rec)
			summary.Extractions = append(summary.Extractions, Extraction{
				Annotation: annotation,
				Kind:       el.Kind(),
				Line:       el.Position().Line,
				Record:     rec,
			})
		}
		touched = append(touched, s)
	}

	// Flushing
	p.setState(StateFlushing)
	for _, s := range touched {
		if err := s.Flush(); err != nil {
			stats.WriteFailures++
			p.logger.Error("failed to write extraction output", "annotation", s.Annotation(), "error", err)
		}
	}

	stats.Duration = time.Since(stats.StartedAt)
	summary.Stats = *stats

	if p.recorder != nil {
		if err := p.recorder.RecordRound(ctx, summary); err != nil {
			p.logger.Warn("failed to record round", "round", stats.Round, "error", err)
		}
	}

	p.logger.Debug("round complete",
		"round", stats.Round,
		"elements", stats.Elements,
		"misses", stats.Misses,
		"duration", stats.Duration)

	return stats, nil
}

// Forget drops the records of files from every sink. Used before files are
// extracted again, and for deleted files. Must not be called during Process.
func (p *Processor) Forget(files ...string) int {
	return p.registry.Forget(files...)
}

// Flush rewrites every sink, including those no round touched since they
// last changed. Used after Forget when no round follows. Must not be called
// during Process.
func (p *Processor) Flush() error {
	return p.registry.Flush()
}

// Close performs the final flush of every sink. Must not be called during
// Process.
func (p *Processor) Close() error {
	return p.registry.Close()
}

// discover remembers newly seen marked annotation types and opens their
// sinks. It returns the annotations whose sink failed to open this round;
// they are retried in later rounds.
func (p *Processor) discover(env RoundEnv, stats *RoundStats) map[string]bool {
	failed := make(map[string]bool)
	for _, at := range env.Annotations() {
		if !at.Marked || p.marked[at.QualifiedName] {
			continue
		}
		p.mu.Lock()
		p.marked[at.QualifiedName] = true
		p.tracked = append(p.tracked, at.QualifiedName)
		p.mu.Unlock()
		p.logger.Info("annotation", "annotation", at.QualifiedName)

		if _, err := p.registry.Ensure(at.QualifiedName); err != nil {
			failed[at.QualifiedName] = true
			stats.OpenFailures++
			p.logger.Error("skipping annotation for this round", "annotation", at.QualifiedName, "error", err)
		}
	}
	return failed
}

// extract builds the record of one element.
func (p *Processor) extract(el extract.Element, env RoundEnv, stats *RoundStats) extract.Record {
	stats.Elements++

	// A missing tree degrades to an empty scan and is reported as a miss.
	tree, _ := env.TreeOf(el)
	rec := extract.NewRecord(el, tree)
	p.logger.Info("// "+rec.ID, "kind", el.Kind().String(), "file", rec.File)

	if rec.Source == "" && el.Kind() != extract.KindOther {
		stats.Misses++
		p.logger.Warn("no source found for element", "id", rec.ID, "kind", el.Kind().String(), "file", rec.File)
	}
	return rec
}

func (p *Processor) begin() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return 0, false
	}
	p.state = StateCollecting
	p.rounds++
	return p.rounds, true
}

func (p *Processor) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}
