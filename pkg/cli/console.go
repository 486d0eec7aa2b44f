package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
)

// ANSI palette indices
const (
	colorGreen  = "2"
	colorRed    = "1"
	colorYellow = "3"
	colorCyan   = "6"
	colorGray   = "8"
)

// Slow scenario threshold in milliseconds
const slowThresholdMs = 90_000

// console prints live progress and the final summary. Callbacks may arrive
// from several workers at once.
type console struct {
	mu  sync.Mutex
	out *termenv.Output
}

func newConsole(w io.Writer, noANSI bool) *console {
	var opts []termenv.OutputOption
	if noANSI || termenv.EnvNoColor() {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &console{out: termenv.NewOutput(w, opts...)}
}

func (c *console) paint(s, color string) string {
	return c.out.String(s).Foreground(c.out.Color(color)).String()
}

func (c *console) bold(s string) string {
	return c.out.String(s).Bold().String()
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) banner() {
	c.printf("\n%s %s\n", c.bold("aysa-runner"), c.paint(Version, colorGray))
	c.printf("%s\n", strings.Repeat("═", 60))
}

func (c *console) onScenarioStart(idx, total int, sc matrix.Scenario) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("\n  %s %s\n", c.paint(fmt.Sprintf("[%d/%d]", idx+1, total), colorCyan), c.bold(sc.Name()))
	c.printf("  %s\n", c.paint(sc.Description, colorGray))
}

func (c *console) onScenarioEnd(_, _ int, e report.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dur := formatDuration(e.DurationMs)
	switch e.Status {
	case core.StatusPass:
		symbol, symbolColor := "✓", colorGreen
		if e.DurationMs >= slowThresholdMs {
			symbol, symbolColor = "⚠", colorYellow
		}
		c.printf("  %s %s %s\n", c.paint(symbol, symbolColor), e.Name, c.paint("("+dur+")", colorGray))
		if len(e.Detected) > 0 {
			c.printf("    %s detected: %s\n", c.paint("╰─", colorGray), strings.Join(e.Detected, ", "))
		}
	case core.StatusFail:
		c.printf("  %s %s %s\n", c.paint("✗", colorRed), e.Name, c.paint("("+dur+")", colorGray))
		if e.ErrorDetail != "" {
			c.printf("    %s %s\n", c.paint("╰─", colorGray), e.ErrorDetail)
		}
	default:
		c.printf("  %s %s %s\n", c.paint("-", colorCyan), e.Name, c.paint(e.ErrorDetail, colorGray))
	}
}

func (c *console) summary(entries []report.Entry, s report.Summary, total time.Duration) {
	tableWidth := 92
	c.printf("\n%s\n", strings.Repeat("═", tableWidth))
	c.printf("  %-6s %-58s %6s %10s\n", "ID", "Scenario", "Status", "Duration")
	c.printf("%s\n", strings.Repeat("─", tableWidth))

	for _, e := range entries {
		name := e.Name
		if len(name) > 58 {
			name = name[:55] + "..."
		}
		c.printf("  %-6d %-58s %s %10s\n", e.ScenarioID, name, c.status(e.Status), formatDuration(e.DurationMs))
	}

	c.printf("%s\n", strings.Repeat("─", tableWidth))
	passColor := colorGreen
	if s.Failed > 0 {
		passColor = colorRed
	}
	c.printf("  %s  %s passed, %d failed, %d skipped (%.1f%%) in %s\n",
		c.bold("TOTAL"),
		c.paint(fmt.Sprintf("%d/%d", s.Passed, s.Total), passColor),
		s.Failed, s.Skipped, s.PassRate, formatDuration(total.Milliseconds()))
	c.printf("%s\n", strings.Repeat("═", tableWidth))
}

func (c *console) status(s core.Status) string {
	// Pad before colouring so escape codes do not break the column.
	label := fmt.Sprintf("%6s", s.String())
	switch s {
	case core.StatusPass:
		return c.paint(label, colorGreen)
	case core.StatusFail:
		return c.paint(label, colorRed)
	default:
		return c.paint(label, colorCyan)
	}
}

func (c *console) reports(paths ...string) {
	c.printf("\n  Reports:\n")
	for _, p := range paths {
		c.printf("    %s\n", p)
	}
	c.printf("\n")
}

func (c *console) warn(format string, args ...interface{}) {
	c.printf("  %s %s\n", c.paint("⚠", colorYellow), fmt.Sprintf(format, args...))
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
