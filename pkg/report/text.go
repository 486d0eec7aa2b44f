package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// Render writes the fixed-layout text report.
func (a *Aggregator) Render(w io.Writer) error {
	entries := a.Entries()
	summary := summarize(entries)

	b := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(b, format+"\n", args...)
	}

	line(heavyRule)
	line("                    AYSA DISEASE DETECTION TEST RESULTS")
	line(heavyRule)
	line("")
	line("Run Date: %s", a.StartTime().Format("2006-01-02 15:04:05"))
	line("Total Duration: %s", formatDuration(a.Duration().Milliseconds()))
	line("")

	line(lightRule)
	line("                              SUMMARY")
	line(lightRule)
	line("  Total Tests: %d", summary.Total)
	line("  Passed:      %d", summary.Passed)
	line("  Failed:      %d", summary.Failed)
	line("  Skipped:     %d", summary.Skipped)
	line("  Pass Rate:   %.1f%%", summary.PassRate)
	line("")

	line(lightRule)
	line("                           DETAILED RESULTS")
	line(lightRule)
	line("")

	for _, e := range entries {
		line("[%s] %s", e.Status, e.Name)
		if e.DurationMs > 0 {
			line("       Duration: %s", formatDuration(e.DurationMs))
		}
		if e.ErrorDetail != "" {
			line("       Error: %s", e.ErrorDetail)
		}
		line("")
	}

	line(heavyRule)
	line("                              END OF REPORT")
	line(heavyRule)

	return b.Flush()
}

// WriteFile renders the text report to path, creating parent directories.
func (a *Aggregator) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatDuration formats milliseconds as "Xm Ys" from one minute up,
// otherwise as seconds with one truncated decimal.
func formatDuration(ms int64) string {
	seconds := ms / 1000
	minutes := seconds / 60
	seconds %= 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%d.%ds", seconds, (ms%1000)/100)
}
