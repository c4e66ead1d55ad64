package annotation

import (
	"regexp"
	"strings"
)

var (
	beginPattern = regexp.MustCompile(`AI_SPEC_BEGIN\(([^)]*)\)\s*:\s*"((?:[^"\\]|\\.)*)"`)
	endPattern   = regexp.MustCompile(`AI_SPEC_END\(([^)]*)\)`)

	specUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

// openBlock tracks a begin-marker waiting for its end-marker.
type openBlock struct {
	names []string
	spec  string
	line  int // 0-based index of the begin-marker line
}

// Parse extracts the rules annotated in text. path is recorded on every block.
// Rules are returned in the order their first block completes.
func Parse(path, text string) []Rule {
	lines := splitLines(text)

	var rules []Rule
	index := make(map[string]int)
	var open *openBlock

	for i, line := range lines {
		if m := beginPattern.FindStringSubmatch(line); m != nil {
			// A new begin abandons any block still open.
			open = nil
			names, ok := parseNames(m[1])
			if !ok {
				continue
			}
			open = &openBlock{
				names: names,
				spec:  strings.TrimSpace(specUnescaper.Replace(m[2])),
				line:  i,
			}
			continue
		}

		m := endPattern.FindStringSubmatch(line)
		if m == nil || open == nil {
			continue
		}
		names, ok := parseNames(m[1])
		if !ok || !sameNames(open.names, names) {
			continue
		}

		block := Block{
			Spec:      open.spec,
			Source:    trimBlankLines(lines[open.line+1 : i]),
			FilePath:  path,
			StartLine: open.line + 1,
			EndLine:   i + 1,
		}
		for _, name := range open.names {
			idx, exists := index[name]
			if !exists {
				idx = len(rules)
				index[name] = idx
				rules = append(rules, Rule{Name: name})
			}
			rules[idx].Blocks = append(rules[idx].Blocks, block)
		}
		open = nil
	}

	return rules
}

// parseNames splits a comma-separated name list. Every name must be non-empty
// after trimming.
func parseNames(list string) ([]string, bool) {
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}
		names = append(names, p)
	}
	return names, true
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// trimBlankLines joins lines, dropping leading and trailing whitespace-only
// lines. Interior blank lines and indentation are kept.
func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
