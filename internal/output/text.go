package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/ailint/internal/lint"
	"github.com/dshills/ailint/internal/oracle"
)

// TextWriter renders a human-readable report. Colour is used only when w is
// a terminal.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *lint.Report) error {
	r := lipgloss.NewRenderer(w)
	pass := r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	fail := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dim := r.NewStyle().Foreground(lipgloss.Color("8"))
	rule := r.NewStyle().Bold(true)

	ew := &errWriter{w: w}
	s := report.Summary
	ew.printf("ailint: %d rules in %d files, %d batches", s.Rules, s.Files, s.Batches)
	if s.Cached > 0 {
		ew.printf(" (%d cached)", s.Cached)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if len(report.Results) == 0 {
		ew.println("\nNo rules found.")
		return ew.err
	}

	for _, res := range report.Results {
		label := pass.Render("PASS")
		if res.Result != oracle.Pass {
			label = fail.Render("FAIL")
		}
		ew.printf("\n%s  %s", label, rule.Render(res.Rule))
		extra := res.Model
		if res.Cached {
			extra += ", cached"
		}
		if extra != "" {
			ew.printf("  %s", dim.Render("("+extra+")"))
		}
		ew.println("")
		if res.Reason != "" {
			for _, line := range wrapText(res.Reason, 70) {
				ew.printf("      %s\n", line)
			}
		}
		for _, loc := range res.Locations {
			ew.printf("      %s\n", dim.Render(formatLocation(loc)))
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("%d passed, %d failed. Completed in %dms (scan: %dms, oracle: %dms)\n",
		s.Passed, s.Failed, report.Timing.TotalMs, report.Timing.ScanMs, report.Timing.OracleMs)
	return ew.err
}
