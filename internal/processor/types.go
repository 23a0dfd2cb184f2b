package processor

import (
	"context"
	"errors"
	"time"

	"github.com/mvp-joe/centrifuge/internal/extract"
)

// ErrRoundInProgress is returned when Process is re-entered before the
// previous round finished.
var ErrRoundInProgress = errors.New("extraction round already in progress")

// RoundEnv is what the front-end supplies for one compilation round.
type RoundEnv interface {
	// Annotations returns the annotation types present in the round.
	Annotations() []extract.AnnotationType

	// ElementsAnnotatedWith returns the round's elements carrying the
	// annotation, in visit order.
	ElementsAnnotatedWith(annotation string) []extract.Element

	// TreeOf returns the syntax tree a scanner should walk for el.
	TreeOf(el extract.Element) (extract.SyntaxTree, bool)
}

// Recorder receives a summary after every round (e.g. the manifest store).
type Recorder interface {
	RecordRound(ctx context.Context, summary *RoundSummary) error
}

// State is the processor's position in the round state machine.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateFlushing:
		return "flushing"
	default:
		return "idle"
	}
}

// RoundStats counts what happened in one round.
type RoundStats struct {
	Round         int
	Annotations   int // tracked annotation types with elements this round
	Elements      int
	Misses        int // elements whose scan found no source
	OpenFailures  int
	WriteFailures int
	StartedAt     time.Time
	Duration      time.Duration
}

// Extraction is one element extracted during a round.
type Extraction struct {
	Annotation string
	Kind       extract.Kind
	Line       int
	Record     extract.Record
}

// RoundSummary is handed to the Recorder after a round.
type RoundSummary struct {
	Stats       RoundStats
	Files       []string
	Extractions []Extraction
}
