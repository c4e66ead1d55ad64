package assemble

import (
	"fmt"
	"strings"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

// ParamResolver resolves API parameters for a rule as seen from one file.
type ParamResolver interface {
	ResolveParameters(filePath, rule string) (*config.Params, error)
}

// ResolvedRule is a rule with the one parameter set all its blocks agree on.
type ResolvedRule struct {
	Rule   annotation.Rule
	Params config.Params
}

// Conflict is one of the parameter sets a rule resolves to, with the files
// that produce it.
type Conflict struct {
	Params config.Params
	Files  []string
}

// ConflictError reports a rule whose blocks resolve to different API
// parameters.
type ConflictError struct {
	Rule      string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %q resolves to %d different API configurations; all of its blocks must share one:", e.Rule, len(e.Conflicts))
	for _, c := range e.Conflicts {
		fmt.Fprintf(&b, "\n  %s\n    from: %s", c.Params, strings.Join(c.Files, ", "))
	}
	return b.String()
}

// Files returns every file implicated in the conflict.
func (e *ConflictError) Files() []string {
	var files []string
	for _, c := range e.Conflicts {
		files = append(files, c.Files...)
	}
	return files
}

// MissingParamsError reports a rule with blocks in files that no config
// gives API parameters to.
type MissingParamsError struct {
	Rule  string
	Files []string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("rule %q has no API configuration for %s; add an apiConfig to a %s above these files",
		e.Rule, strings.Join(e.Files, ", "), config.FileName)
}

// Resolve resolves the parameters of every rule, visiting blocks one at a
// time in order. It fails on the first rule whose blocks disagree.
func Resolve(rules []annotation.Rule, resolver ParamResolver) ([]ResolvedRule, error) {
	out := make([]ResolvedRule, 0, len(rules))
	for _, r := range rules {
		if len(r.Blocks) == 0 {
			continue
		}
		var conflicts []Conflict
		var missing []string
		for _, b := range r.Blocks {
			p, err := resolver.ResolveParameters(b.FilePath, r.Name)
			if err != nil {
				return nil, fmt.Errorf("resolving parameters for rule %q in %s: %w", r.Name, b.FilePath, err)
			}
			if p == nil {
				missing = appendUnique(missing, b.FilePath)
				continue
			}
			conflicts = addConflict(conflicts, *p, b.FilePath)
		}

		if len(missing) > 0 {
			return nil, &MissingParamsError{Rule: r.Name, Files: missing}
		}
		if len(conflicts) > 1 {
			return nil, &ConflictError{Rule: r.Name, Conflicts: conflicts}
		}
		out = append(out, ResolvedRule{Rule: r, Params: conflicts[0].Params})
	}
	return out, nil
}

func addConflict(conflicts []Conflict, p config.Params, file string) []Conflict {
	for i := range conflicts {
		if conflicts[i].Params == p {
			conflicts[i].Files = appendUnique(conflicts[i].Files, file)
			return conflicts
		}
	}
	return append(conflicts, Conflict{Params: p, Files: []string{file}})
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
