package assemble

import (
	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

// DefaultMaxChars is the batch ceiling used when none is configured.
const DefaultMaxChars = 100000

// SizeFunc returns the serialized size of a single rule, in characters.
type SizeFunc func(rule annotation.Rule) int

// Batch is one oracle request: rules sharing one parameter set.
type Batch struct {
	Index  int
	Params config.Params
	Rules  []annotation.Rule
	Chars  int
}

// MakeBatches groups rules by parameters, in order of each group's first
// rule, then packs each group under maxChars. A rule larger than maxChars
// gets a batch of its own.
func MakeBatches(rules []ResolvedRule, maxChars int, size SizeFunc) []Batch {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	type group struct {
		params config.Params
		rules  []annotation.Rule
	}
	var groups []*group
	byParams := make(map[config.Params]*group)
	for _, rr := range rules {
		g, ok := byParams[rr.Params]
		if !ok {
			g = &group{params: rr.Params}
			byParams[rr.Params] = g
			groups = append(groups, g)
		}
		g.rules = append(g.rules, rr.Rule)
	}

	var batches []Batch
	for _, g := range groups {
		var current []annotation.Rule
		chars := 0
		flush := func() {
			batches = append(batches, Batch{
				Index:  len(batches),
				Params: g.params,
				Rules:  current,
				Chars:  chars,
			})
			current = nil
			chars = 0
		}
		for _, r := range g.rules {
			n := size(r)
			if len(current) > 0 && chars+n > maxChars {
				flush()
			}
			current = append(current, r)
			chars += n
		}
		if len(current) > 0 {
			flush()
		}
	}
	return batches
}
