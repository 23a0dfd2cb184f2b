package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvp-joe/centrifuge/internal/watcher"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Extract, then keep artifacts current as sources change",
	Long: `Watch runs a full extraction and then keeps the session open. Changed Java
files are re-extracted after a quiet period (watch.debounce_ms); records of
deleted files are dropped from their artifacts.

Artifacts are rewritten at the end of every round and once more on exit.
Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output directory (overrides output.dir)")
	watchCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if outFlag != "" {
		cfg.Output.Dir = outFlag
	}
	logger := newLogger(cfg)

	sess, err := openSession(rootDir, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	files, err := sess.discover()
	if err != nil {
		return err
	}
	progress := NewCLIProgressReporter(cmd.OutOrStdout(), quietFlag)
	progress.OnDiscoveryComplete(len(files))

	stats, err := sess.round(ctx, files, progress)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("initial extraction failed: %w", err)
	}
	progress.OnRoundComplete(stats, sess.outputDir())

	fw, err := watcher.NewFileWatcher(rootDir, sess.discovery, watcher.Options{
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// The watcher calls back from a single goroutine, so rounds never overlap.
	if err := fw.Start(ctx, func(changed []string) {
		stats, err := sess.refresh(ctx, changed)
		if err != nil {
			logger.Error("refresh failed", "files", len(changed), "error", err)
			return
		}
		if stats == nil {
			logger.Info("removed records of deleted files", "files", len(changed))
			return
		}
		logger.Info("re-extracted changed files",
			"files", len(changed),
			"round", stats.Round,
			"elements", stats.Elements,
			"duration", stats.Duration)
	}); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if !quietFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", rootDir)
	}
	<-ctx.Done()

	if err := fw.Stop(); err != nil {
		logger.Warn("failed to stop file watcher", "error", err)
	}
	return nil
}
