package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dshills/ailint/internal/lint"
	"github.com/dshills/ailint/internal/oracle"
)

// SARIFWriter outputs failed rules in SARIF v2.1.0 format. Every checked
// rule is listed under the driver's rules.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *lint.Report) error {
	data, err := json.MarshalIndent(buildSARIF(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

func buildSARIF(report *lint.Report) sarifLog {
	rules := make([]sarifRule, 0, len(report.Results))
	results := make([]sarifResult, 0)
	for _, res := range report.Results {
		rules = append(rules, sarifRule{
			ID:               res.Rule,
			ShortDescription: sarifMessage{Text: fmt.Sprintf("ailint rule %s", res.Rule)},
		})
		if res.Result == oracle.Pass {
			continue
		}
		msg := res.Reason
		if msg == "" {
			msg = fmt.Sprintf("rule %s does not satisfy its specification", res.Rule)
		}
		result := sarifResult{RuleID: res.Rule, Level: "error", Message: sarifMessage{Text: msg}}
		for _, loc := range res.Locations {
			result.Locations = append(result.Locations, sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: filepath.ToSlash(loc.Path)},
					Region:           sarifRegion{StartLine: loc.StartLine, EndLine: loc.EndLine},
				},
			})
		}
		results = append(results, result)
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "ailint", Version: report.Version, Rules: rules}},
			Results: results,
		}},
	}
}
