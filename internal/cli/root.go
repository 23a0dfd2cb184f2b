package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mvp-joe/centrifuge/internal/config"
	"github.com/mvp-joe/centrifuge/internal/logging"
	"github.com/spf13/cobra"
)

var (
	rootDirFlag string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "centrifuge",
	Short: "Centrifuge - harvest annotated Java source",
	Long: `Centrifuge scans Java sources for classes, methods and constructors carrying
extraction annotations and writes their source text, grouped by annotation, to
centrifuge/<AnnotationSimpleName> artifacts.

An annotation type is extracted when its declaration is annotated with the
configured meta-annotation (default @com.shhp.centrifuge.annotation.CodeExtractor)
or when it is listed under annotations.marked in .centrifuge/config.yml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot returns the absolute project root.
func projectRoot() (string, error) {
	dir := rootDirFlag
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return abs, nil
}

// loadProject resolves the project root and loads its configuration.
func loadProject() (string, *config.Config, error) {
	rootDir, err := projectRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return rootDir, cfg, nil
}

// newLogger builds the diagnostics logger; --verbose forces debug.
func newLogger(cfg *config.Config) *slog.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.Level(cfg.Log.Level)
	lc.Format = logging.Format(cfg.Log.Format)
	if verbose {
		lc.Level = logging.LevelDebug
	}
	return logging.New(lc)
}
