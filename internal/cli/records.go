package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/mvp-joe/centrifuge/internal/config"
	"github.com/mvp-joe/centrifuge/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	annotationFlag string
	fileFlag       string
	roundFlag      string
	limitFlag      int
	roundsLimit    int
	keepFlag       int
	jsonFlag       bool
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List extracted elements recorded in the manifest",
	Long: `Records lists the elements recorded in the manifest, newest round first.

Examples:
  # Everything extracted for one annotation type
  centrifuge records --annotation com.shhp.centrifuge.demo.Core

  # Elements of one file as JSON
  centrifuge records --file src/main/java/com/acme/Home.java --json
`,
	RunE: runRecords,
}

// roundsCmd represents the rounds command
var roundsCmd = &cobra.Command{
	Use:   "rounds",
	Short: "List rounds recorded in the manifest",
	RunE:  runRounds,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().StringVar(&annotationFlag, "annotation", "", "Only records of this qualified annotation type")
	recordsCmd.Flags().StringVar(&fileFlag, "file", "", "Only records from this source file")
	recordsCmd.Flags().StringVar(&roundFlag, "round", "", "Only records of this round id")
	recordsCmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum number of records (0 for all)")
	recordsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	rootCmd.AddCommand(roundsCmd)
	roundsCmd.Flags().IntVar(&roundsLimit, "limit", 20, "Maximum number of rounds (0 for all)")
	roundsCmd.Flags().IntVar(&keepFlag, "prune", -1, "Delete all but the newest N rounds before listing")
	roundsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
}

// openManifest opens the project's manifest. It returns nil when none has
// been written yet.
func openManifest() (*manifest.Store, error) {
	rootDir, cfg, err := loadProject()
	if err != nil {
		return nil, err
	}
	path := config.Resolve(rootDir, cfg.Manifest.Path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return manifest.Open(path)
}

func runRecords(cmd *cobra.Command, args []string) error {
	store, err := openManifest()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintln(out, "No manifest found. Run 'centrifuge extract' first.")
		return nil
	}
	defer store.Close()

	filter := manifest.Filter{
		Annotation: annotationFlag,
		RoundID:    roundFlag,
		Limit:      limitFlag,
	}
	if fileFlag != "" {
		if filter.File, err = filepath.Abs(fileFlag); err != nil {
			return fmt.Errorf("failed to resolve --file: %w", err)
		}
	}

	records, err := store.Records(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if jsonFlag {
		return writeJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No records.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ELEMENT\tKIND\tANNOTATION\tLOCATION\tSOURCE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s:%d\t%s (%d bytes)\n",
			r.ElementID, r.Kind, r.Annotation, r.FilePath, r.Line, r.SourceHash, r.SourceLen)
	}
	return tw.Flush()
}

func runRounds(cmd *cobra.Command, args []string) error {
	store, err := openManifest()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintln(out, "No manifest found. Run 'centrifuge extract' first.")
		return nil
	}
	defer store.Close()

	if keepFlag >= 0 {
		n, err := store.Prune(cmd.Context(), keepFlag)
		if err != nil {
			return err
		}
		if !jsonFlag {
			fmt.Fprintf(out, "Pruned %s rounds\n", formatNumber(int(n)))
		}
	}

	rounds, err := store.Rounds(cmd.Context(), roundsLimit)
	if err != nil {
		return err
	}
	if jsonFlag {
		return writeJSON(out, rounds)
	}
	if len(rounds) == 0 {
		fmt.Fprintln(out, "No rounds.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tSEQ\tSTARTED\tDURATION\tFILES\tELEMENTS\tMISSES\tFAILURES")
	for _, r := range rounds {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.Seq, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Files, r.Elements, r.Misses, r.Failures)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
