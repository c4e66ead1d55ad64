package assemble

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

func block(file, spec string) annotation.Block {
	return annotation.Block{Spec: spec, Source: "src", FilePath: file, StartLine: 1, EndLine: 3}
}

func TestAssembler_MergesInFileOrder(t *testing.T) {
	a := New()
	a.Add([]annotation.Rule{
		{Name: "x", Blocks: []annotation.Block{block("a.go", "1")}},
		{Name: "y", Blocks: []annotation.Block{block("a.go", "2")}},
	})
	a.Add([]annotation.Rule{
		{Name: "z", Blocks: []annotation.Block{block("b.go", "3")}},
		{Name: "x", Blocks: []annotation.Block{block("b.go", "4")}},
	})
	a.Add([]annotation.Rule{{Name: "empty"}})

	rules := a.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"x", "y", "z"}, []string{rules[0].Name, rules[1].Name, rules[2].Name})
	require.Len(t, rules[0].Blocks, 2)
	assert.Equal(t, "a.go", rules[0].Blocks[0].FilePath)
	assert.Equal(t, "b.go", rules[0].Blocks[1].FilePath)
	assert.Equal(t, 3, a.Len())
}

func TestAssembler_NoDeduplication(t *testing.T) {
	a := New()
	b := block("a.go", "same")
	a.Add([]annotation.Rule{{Name: "x", Blocks: []annotation.Block{b}}})
	a.Add([]annotation.Rule{{Name: "x", Blocks: []annotation.Block{b}}})

	rules := a.Rules()
	require.Len(t, rules, 1)
	assert.Len(t, rules[0].Blocks, 2)
}

// mapResolver resolves parameters by file path.
type mapResolver struct {
	byFile map[string]*config.Params
	err    error
	calls  []string
}

func (m *mapResolver) ResolveParameters(file, rule string) (*config.Params, error) {
	m.calls = append(m.calls, file+":"+rule)
	if m.err != nil {
		return nil, m.err
	}
	return m.byFile[file], nil
}

func TestResolve_SingleConfiguration(t *testing.T) {
	p := &config.Params{ModelName: "m"}
	r := &mapResolver{byFile: map[string]*config.Params{"a.go": p, "b.go": p}}
	rules := []annotation.Rule{{Name: "x", Blocks: []annotation.Block{block("a.go", "1"), block("b.go", "2")}}}

	resolved, err := Resolve(rules, r)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, *p, resolved[0].Params)
	assert.Equal(t, []string{"a.go:x", "b.go:x"}, r.calls)
}

func TestResolve_Conflict(t *testing.T) {
	r := &mapResolver{byFile: map[string]*config.Params{
		"a.go": {ModelName: "model-a"},
		"b.go": {ModelName: "model-b"},
	}}
	rules := []annotation.Rule{{Name: "x", Blocks: []annotation.Block{block("a.go", "1"), block("b.go", "2")}}}

	_, err := Resolve(rules, r)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict), "expected ConflictError, got %v", err)
	assert.Equal(t, "x", conflict.Rule)
	require.Len(t, conflict.Conflicts, 2)
	assert.Equal(t, []string{"a.go", "b.go"}, conflict.Files())
	assert.Contains(t, err.Error(), "model-a")
	assert.Contains(t, err.Error(), "model-b")
	assert.Contains(t, err.Error(), "a.go")
	assert.Contains(t, err.Error(), "b.go")
}

func TestResolve_MissingParams(t *testing.T) {
	r := &mapResolver{byFile: map[string]*config.Params{"a.go": {ModelName: "m"}}}
	rules := []annotation.Rule{{Name: "x", Blocks: []annotation.Block{block("a.go", "1"), block("orphan.go", "2")}}}

	_, err := Resolve(rules, r)
	var missing *MissingParamsError
	require.True(t, errors.As(err, &missing), "expected MissingParamsError, got %v", err)
	assert.Equal(t, []string{"orphan.go"}, missing.Files)
}

func TestResolve_PropagatesConfigError(t *testing.T) {
	cfgErr := &config.Error{Path: "/x/.ailint.json", Msg: "boom"}
	r := &mapResolver{err: cfgErr}
	rules := []annotation.Rule{{Name: "x", Blocks: []annotation.Block{block("a.go", "1")}}}

	_, err := Resolve(rules, r)
	var got *config.Error
	require.True(t, errors.As(err, &got))
	assert.Same(t, cfgErr, got)
}

func fixedSize(sizes map[string]int) SizeFunc {
	return func(r annotation.Rule) int { return sizes[r.Name] }
}

func resolved(params config.Params, names ...string) []ResolvedRule {
	var out []ResolvedRule
	for _, n := range names {
		out = append(out, ResolvedRule{Rule: annotation.Rule{Name: n}, Params: params})
	}
	return out
}

func batchNames(b Batch) []string {
	var names []string
	for _, r := range b.Rules {
		names = append(names, r.Name)
	}
	return names
}

func TestMakeBatches_Boundary(t *testing.T) {
	p := config.Params{ModelName: "m"}
	size := fixedSize(map[string]int{"a": 60, "b": 60})

	batches := MakeBatches(resolved(p, "a", "b"), 100, size)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a"}, batchNames(batches[0]))
	assert.Equal(t, []string{"b"}, batchNames(batches[1]))
}

func TestMakeBatches_ExactFit(t *testing.T) {
	p := config.Params{ModelName: "m"}
	size := fixedSize(map[string]int{"a": 50, "b": 50, "c": 1})

	batches := MakeBatches(resolved(p, "a", "b", "c"), 100, size)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, batchNames(batches[0]))
	assert.Equal(t, 100, batches[0].Chars)
	assert.Equal(t, []string{"c"}, batchNames(batches[1]))
}

func TestMakeBatches_OversizedRuleAlone(t *testing.T) {
	p := config.Params{ModelName: "m"}
	size := fixedSize(map[string]int{"small": 10, "huge": 500, "tail": 10})

	batches := MakeBatches(resolved(p, "small", "huge", "tail"), 100, size)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"small"}, batchNames(batches[0]))
	assert.Equal(t, []string{"huge"}, batchNames(batches[1]))
	assert.Equal(t, 500, batches[1].Chars)
	assert.Equal(t, []string{"tail"}, batchNames(batches[2]))
}

func TestMakeBatches_GroupsByParams(t *testing.T) {
	p1 := config.Params{ModelName: "one"}
	p2 := config.Params{ModelName: "two"}
	rules := []ResolvedRule{
		{Rule: annotation.Rule{Name: "a"}, Params: p1},
		{Rule: annotation.Rule{Name: "b"}, Params: p2},
		{Rule: annotation.Rule{Name: "c"}, Params: p1},
		{Rule: annotation.Rule{Name: "d"}, Params: p2},
	}
	batches := MakeBatches(rules, 1000, func(annotation.Rule) int { return 1 })
	require.Len(t, batches, 2)
	assert.Equal(t, p1, batches[0].Params)
	assert.Equal(t, []string{"a", "c"}, batchNames(batches[0]))
	assert.Equal(t, p2, batches[1].Params)
	assert.Equal(t, []string{"b", "d"}, batchNames(batches[1]))
	for i, b := range batches {
		assert.Equal(t, i, b.Index)
	}
}

func TestMakeBatches_ManyRules(t *testing.T) {
	p := config.Params{ModelName: "m"}
	var names []string
	for i := 0; i < 10; i++ {
		names = append(names, fmt.Sprintf("r%d", i))
	}
	batches := MakeBatches(resolved(p, names...), 30, func(annotation.Rule) int { return 10 })
	require.Len(t, batches, 4)
	total := 0
	for _, b := range batches {
		assert.LessOrEqual(t, b.Chars, 30)
		total += len(b.Rules)
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, []string{"r9"}, batchNames(batches[3]))
}

func TestMakeBatches_Empty(t *testing.T) {
	assert.Empty(t, MakeBatches(nil, 100, func(annotation.Rule) int { return 1 }))
}
