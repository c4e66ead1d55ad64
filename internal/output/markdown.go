package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/ailint/internal/lint"
	"github.com/dshills/ailint/internal/oracle"
)

// MarkdownWriter outputs a PR-comment-friendly report. Failed rules come
// first and are expanded; passed rules are collapsed.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *lint.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## ailint\n\n")
	ew.printf("| Result | Rules |\n")
	ew.printf("|--------|-------|\n")
	ew.printf("| Pass   | %d    |\n", s.Passed)
	ew.printf("| Fail   | %d    |\n", s.Failed)
	ew.printf("| **Total** | **%d** |\n\n", s.Rules)

	if len(report.Results) == 0 {
		ew.println("No rules found.")
		return ew.err
	}
	if s.Failed == 0 {
		ew.println("All rules pass. :white_check_mark:")
		ew.println("")
	}

	var failed, passed []lint.RuleResult
	for _, res := range report.Results {
		if res.Result == oracle.Pass {
			passed = append(passed, res)
		} else {
			failed = append(failed, res)
		}
	}

	for _, res := range failed {
		ew.printf("### :x: `%s`\n\n", res.Rule)
		if res.Reason != "" {
			ew.printf("> %s\n\n", strings.ReplaceAll(res.Reason, "\n", "\n> "))
		}
		writeMDLocations(ew, res.Locations)
		ew.printf("---\n\n")
	}

	if len(passed) > 0 {
		ew.printf("<details>\n<summary>:white_check_mark: Passed (%d)</summary>\n\n", len(passed))
		for _, res := range passed {
			ew.printf("- `%s`", res.Rule)
			if res.Reason != "" {
				ew.printf(": %s", strings.ReplaceAll(res.Reason, "\n", " "))
			}
			ew.println("")
		}
		ew.printf("\n</details>\n\n")
	}

	ew.printf("*Checked in %dms (scan: %dms, oracle: %dms)*\n",
		report.Timing.TotalMs, report.Timing.ScanMs, report.Timing.OracleMs)
	return ew.err
}

func writeMDLocations(ew *errWriter, locs []lint.Location) {
	for _, loc := range locs {
		ew.printf("- **`%s`**", formatLocation(loc))
		if lang := inferLang(loc.Path); lang != "" {
			ew.printf(" (%s)", lang)
		}
		ew.println("")
	}
	ew.println("")
}

var langByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
}

func inferLang(path string) string {
	return langByExt[strings.ToLower(filepath.Ext(path))]
}
