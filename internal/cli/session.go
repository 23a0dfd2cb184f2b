package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mvp-joe/centrifuge/internal/config"
	"github.com/mvp-joe/centrifuge/internal/discovery"
	"github.com/mvp-joe/centrifuge/internal/javasrc"
	"github.com/mvp-joe/centrifuge/internal/manifest"
	"github.com/mvp-joe/centrifuge/internal/processor"
	"github.com/mvp-joe/centrifuge/internal/sink"
)

// session is one extraction session over a project: a processor with its
// sinks, the front-end feeding it and the manifest recording it.
type session struct {
	rootDir   string
	cfg       *config.Config
	logger    *slog.Logger
	discovery *discovery.FileDiscovery
	frontend  *javasrc.Frontend
	processor *processor.Processor
	store     *sink.FileStore
	manifest  *manifest.Store // nil when disabled
}

func openSession(rootDir string, cfg *config.Config, logger *slog.Logger) (*session, error) {
	store := sink.NewFileStore(config.Resolve(rootDir, cfg.Output.Dir), cfg.Output.Namespace)

	fd, err := discovery.NewFileDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore,
		store.Dir(), filepath.Join(rootDir, config.DirName))
	if err != nil {
		return nil, fmt.Errorf("failed to set up file discovery: %w", err)
	}

	s := &session{
		rootDir:   rootDir,
		cfg:       cfg,
		logger:    logger,
		discovery: fd,
		store:     store,
		frontend: javasrc.New(javasrc.Options{
			MetaAnnotation: cfg.Annotations.Meta,
			Marked:         cfg.Annotations.Marked,
			Workers:        cfg.Parse.Workers,
			Logger:         logger,
		}),
	}

	opts := []processor.Option{processor.WithLogger(logger)}
	if cfg.Manifest.Enabled {
		m, err := manifest.Open(config.Resolve(rootDir, cfg.Manifest.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		s.manifest = m
		opts = append(opts, processor.WithRecorder(m))
	}
	s.processor = processor.New(sink.NewRegistry(store), opts...)

	return s, nil
}

// discover returns every source file taking part in extraction.
func (s *session) discover() ([]string, error) {
	files, err := s.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover source files: %w", err)
	}
	s.logger.Debug("discovered source files", "count", len(files), "root", s.rootDir)
	return files, nil
}

// refresh re-extracts changed files. Their old records are forgotten first;
// files that no longer exist only lose their records. stats is nil when no
// changed file still exists.
func (s *session) refresh(ctx context.Context, changed []string) (*processor.RoundStats, error) {
	removed := s.processor.Forget(changed...)

	var existing []string
	for _, f := range changed {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	var stats *processor.RoundStats
	if len(existing) > 0 {
		var err error
		if stats, err = s.round(ctx, existing, nil); err != nil {
			return nil, err
		}
	}

	// Sinks that only lost records are not touched by a round.
	if removed > 0 {
		if err := s.processor.Flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// round parses files into one round and processes it.
func (s *session) round(ctx context.Context, files []string, progress javasrc.Progress) (*processor.RoundStats, error) {
	round, err := s.frontend.ParseFiles(ctx, files, progress)
	if err != nil {
		return nil, err
	}
	defer round.Close()

	return s.processor.Process(ctx, round)
}

// outputDir is where artifacts are written.
func (s *session) outputDir() string {
	return s.store.Dir()
}

// close performs the final flush and releases the manifest.
func (s *session) close() error {
	var errs []error
	if err := s.processor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("final flush failed: %w", err))
	}
	if s.manifest != nil {
		if err := s.manifest.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close manifest: %w", err))
		}
	}
	return errors.Join(errs...)
}
