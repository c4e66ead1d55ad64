package redact

import (
	"regexp"

	"github.com/dshills/ailint/internal/annotation"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Text returns s with detected secrets replaced by Placeholder and the
// number of replacements made.
func Text(s string) (string, int) {
	var n int
	for _, pat := range secretPatterns {
		s = pat.ReplaceAllStringFunc(s, func(string) string {
			n++
			return Placeholder
		})
	}
	return s, n
}

// Rules returns copies of rules with every block's source redacted, and the
// total number of replacements. The input is not modified.
func Rules(rules []annotation.Rule) ([]annotation.Rule, int) {
	var total int
	out := make([]annotation.Rule, len(rules))
	for i, r := range rules {
		blocks := make([]annotation.Block, len(r.Blocks))
		for j, b := range r.Blocks {
			var n int
			b.Source, n = Text(b.Source)
			total += n
			blocks[j] = b
		}
		out[i] = annotation.Rule{Name: r.Name, Blocks: blocks}
	}
	return out, total
}
