package assemble

import "github.com/dshills/ailint/internal/annotation"

// Assembler accumulates rules file by file. Use one Assembler per run.
type Assembler struct {
	rules []annotation.Rule
	index map[string]int
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{index: make(map[string]int)}
}

// Add merges the rules parsed from one file. Files must be added in
// discovery order; blocks of an existing rule are appended without
// de-duplication.
func (a *Assembler) Add(rules []annotation.Rule) {
	for _, r := range rules {
		if len(r.Blocks) == 0 {
			continue
		}
		idx, ok := a.index[r.Name]
		if !ok {
			idx = len(a.rules)
			a.index[r.Name] = idx
			a.rules = append(a.rules, annotation.Rule{Name: r.Name})
		}
		a.rules[idx].Blocks = append(a.rules[idx].Blocks, r.Blocks...)
	}
}

// Rules returns the merged rules in discovery order.
func (a *Assembler) Rules() []annotation.Rule {
	out := make([]annotation.Rule, len(a.rules))
	copy(out, a.rules)
	return out
}

// Len returns the number of distinct rules.
func (a *Assembler) Len() int {
	return len(a.rules)
}
