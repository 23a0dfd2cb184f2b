package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mvp-joe/centrifuge/internal/processor"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter reports parsing with a progress bar and prints round
// summaries. It implements javasrc.Progress.
type CLIProgressReporter struct {
	quiet     bool
	out       io.Writer
	mu        sync.Mutex
	fileBar   *progressbar.ProgressBar
	startTime time.Time
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Extracting from %s Java files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnParseStart(total int) {
	if c.quiet || total == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

// OnFileParsed is called from parser goroutines.
func (c *CLIProgressReporter) OnFileParsed(path string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fileBar != nil {
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnParseComplete() {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
}

// OnRoundComplete prints the summary of a finished round.
func (c *CLIProgressReporter) OnRoundComplete(stats *processor.RoundStats, outputDir string) {
	if c.quiet || stats == nil {
		return
	}

	fmt.Fprintf(c.out, "✓ Extracted %s elements for %s annotations in %.1fs\n",
		formatNumber(stats.Elements),
		formatNumber(stats.Annotations),
		time.Since(c.startTime).Seconds())
	fmt.Fprintf(c.out, "  Output: %s\n", outputDir)
	if stats.Misses > 0 {
		fmt.Fprintf(c.out, "  Elements without source: %s\n", formatNumber(stats.Misses))
	}
	if failures := stats.OpenFailures + stats.WriteFailures; failures > 0 {
		fmt.Fprintf(c.out, "  Sink failures: %s (see log)\n", formatNumber(failures))
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
