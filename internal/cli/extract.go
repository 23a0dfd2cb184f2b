package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	outFlag   string
	quietFlag bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract annotated source into centrifuge artifacts",
	Long: `Extract parses every Java source under the project root and writes one
artifact per extracted annotation type to <output.dir>/<output.namespace>.

Each artifact holds one record per annotated element:

  // <element id>
  <source>

Classes contribute their static initializer blocks, methods and constructors
their bodies, and any other element its simple name.

Examples:
  # Extract from the current directory
  centrifuge extract

  # Extract a different project into ./out/centrifuge
  centrifuge extract --root ../app --out ./out
`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output directory (overrides output.dir)")
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if outFlag != "" {
		cfg.Output.Dir = outFlag
	}

	sess, err := openSession(rootDir, cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	files, err := sess.discover()
	if err != nil {
		_ = sess.close()
		return err
	}

	progress := NewCLIProgressReporter(cmd.OutOrStdout(), quietFlag)
	progress.OnDiscoveryComplete(len(files))

	stats, err := sess.round(ctx, files, progress)
	if err != nil {
		_ = sess.close()
		if ctx.Err() != nil {
			return fmt.Errorf("extraction cancelled")
		}
		return fmt.Errorf("extraction failed: %w", err)
	}
	if err := sess.close(); err != nil {
		return err
	}

	progress.OnRoundComplete(stats, sess.outputDir())
	return nil
}
