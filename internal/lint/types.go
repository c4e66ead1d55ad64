package lint

import (
	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/oracle"
)

// Location is one block of a rule.
type Location struct {
	Path      string `json:"path" yaml:"path"`
	StartLine int    `json:"startLine" yaml:"startLine"`
	EndLine   int    `json:"endLine" yaml:"endLine"`
}

// RuleResult is the verdict of one rule.
type RuleResult struct {
	Rule      string        `json:"rule" yaml:"rule"`
	Result    oracle.Result `json:"result" yaml:"result"`
	Reason    string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Model     string        `json:"model" yaml:"model"`
	Cached    bool          `json:"cached,omitempty" yaml:"cached,omitempty"`
	Locations []Location    `json:"locations" yaml:"locations"`
}

// Summary counts what a run did.
type Summary struct {
	Files   int `json:"files" yaml:"files"`
	Rules   int `json:"rules" yaml:"rules"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Batches int `json:"batches" yaml:"batches"`
	Cached  int `json:"cached" yaml:"cached"`
}

// Timing records wall-clock durations.
type Timing struct {
	ScanMs   int64 `json:"scanMs" yaml:"scanMs"`
	OracleMs int64 `json:"oracleMs" yaml:"oracleMs"`
	TotalMs  int64 `json:"totalMs" yaml:"totalMs"`
}

// Report is the result of one run. Results are in rule discovery order.
type Report struct {
	Tool    string       `json:"tool" yaml:"tool"`
	Version string       `json:"version" yaml:"version"`
	RunID   string       `json:"runId" yaml:"runId"`
	Results []RuleResult `json:"results" yaml:"results"`
	Summary Summary      `json:"summary" yaml:"summary"`
	Timing  Timing       `json:"timing" yaml:"timing"`
}

// Verdicts returns the results keyed by rule name.
func (r *Report) Verdicts() map[string]oracle.Verdict {
	out := make(map[string]oracle.Verdict, len(r.Results))
	for _, res := range r.Results {
		out[res.Rule] = oracle.Verdict{Result: res.Result, Reason: res.Reason}
	}
	return out
}

// Failed reports whether any rule failed.
func (r *Report) Failed() bool {
	return r.Summary.Failed > 0
}

func locations(rule annotation.Rule) []Location {
	locs := make([]Location, len(rule.Blocks))
	for i, b := range rule.Blocks {
		locs[i] = Location{Path: b.FilePath, StartLine: b.StartLine, EndLine: b.EndLine}
	}
	return locs
}
