// Package javasrc is the Java front-end: it parses compilation units with
// tree-sitter, resolves annotation usages to qualified names and presents
// the result as an extraction round.
package javasrc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/mvp-joe/centrifuge/internal/extract"
	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	"golang.org/x/sync/errgroup"
)

// DefaultMetaAnnotation marks annotation types whose usages are extracted.
const DefaultMetaAnnotation = "com.shhp.centrifuge.annotation.CodeExtractor"

// Options configures a Frontend.
type Options struct {
	// MetaAnnotation is the qualified name of the annotation that marks an
	// annotation type for extraction.
	MetaAnnotation string

	// Marked lists annotation types treated as marked even when their
	// declaration is not part of the round.
	Marked []string

	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Progress receives parse progress. Implementations must be safe for
// concurrent use.
type Progress interface {
	OnParseStart(total int)
	OnFileParsed(path string)
	OnParseComplete()
}

// SourceFile is a compilation unit held in memory.
type SourceFile struct {
	Path   string
	Source []byte
}

// Frontend turns Java sources into rounds. It remembers the types declared
// in every round it built, so a later round over a subset of the files
// resolves names the same way.
type Frontend struct {
	meta    string
	marked  []string
	workers int
	logger  *slog.Logger
	lang    *sitter.Language

	mu    sync.Mutex
	known map[string]bool // qualified names of types declared in any round
	marks map[string]bool // annotation types marked in any round
}

// New creates a Frontend.
func New(opts Options) *Frontend {
	f := &Frontend{
		meta:    opts.MetaAnnotation,
		marked:  opts.Marked,
		workers: opts.Workers,
		logger:  opts.Logger,
		lang:    sitter.NewLanguage(java.Language()),
		known:   make(map[string]bool),
		marks:   make(map[string]bool),
	}
	if f.meta == "" {
		f.meta = DefaultMetaAnnotation
	}
	if f.workers <= 0 {
		f.workers = runtime.GOMAXPROCS(0)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// ParseFiles reads and parses paths into a round. Files that cannot be read
// are logged and left out of the round.
func (f *Frontend) ParseFiles(ctx context.Context, paths []string, progress Progress) (*Round, error) {
	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			f.logger.Warn("skipping unreadable source file", "file", path, "error", err)
			continue
		}
		files = append(files, SourceFile{Path: path, Source: source})
	}
	return f.Parse(ctx, files, progress)
}

// Parse parses files into a round. Units keep the order of files. The caller
// must Close the round.
func (f *Frontend) Parse(ctx context.Context, files []SourceFile, progress Progress) (*Round, error) {
	if progress != nil {
		progress.OnParseStart(len(files))
		defer progress.OnParseComplete()
	}

	trees := make([]*sitter.Tree, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree, err := f.parse(files[i].Source)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", files[i].Path, err)
			}
			trees[i] = tree
			if progress != nil {
				progress.OnFileParsed(files[i].Path)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, t := range trees {
			if t != nil {
				t.Close()
			}
		}
		return nil, err
	}

	units := make([]*Unit, 0, len(files))
	for i, file := range files {
		if trees[i].RootNode().HasError() {
			f.logger.Warn("source file has syntax errors", "file", file.Path)
		}
		units = append(units, newUnit(file.Path, file.Source, trees[i]))
	}

	round := f.build(units)
	f.logger.Debug("parsed round",
		"files", len(units),
		"annotations", len(round.annotations),
		"marked", countMarked(round.annotations))
	return round, nil
}

// build records the units' types in the session index and resolves the
// round against it. Annotation types marked in earlier rounds stay marked.
func (f *Frontend) build(units []*Unit) *Round {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range units {
		for _, td := range u.types {
			f.known[td.qualifiedName] = true
		}
	}
	b := newRoundBuilder(units, f.meta, f.marked, f.known)
	for qn := range f.marks {
		b.marked[qn] = true
	}
	round := b.build()
	for qn, ok := range b.marked {
		if ok {
			f.marks[qn] = true
		}
	}
	return round
}

// parse uses a parser per call; tree-sitter parsers are not safe for
// concurrent use.
func (f *Frontend) parse(source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(f.lang); err != nil {
		return nil, err
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser returned no tree")
	}
	return tree, nil
}

func countMarked(annotations []extract.AnnotationType) int {
	n := 0
	for _, at := range annotations {
		if at.Marked {
			n++
		}
	}
	return n
}
