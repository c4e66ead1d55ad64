package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

type wireResponse struct {
	Results map[string]wireVerdict `json:"results"`
}

type wireVerdict struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

// parseVerdicts decodes a response body into verdicts.
func parseVerdicts(content string) (map[string]Verdict, error) {
	content = stripFences(strings.TrimSpace(content))

	var resp wireResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("response has no \"results\" object")
	}

	verdicts := make(map[string]Verdict, len(resp.Results))
	for name, v := range resp.Results {
		result := Result(strings.ToUpper(strings.TrimSpace(v.Result)))
		if result != Pass && result != Fail {
			return nil, fmt.Errorf("rule %q: result must be PASS or FAIL, got %q", name, v.Result)
		}
		verdicts[name] = Verdict{Result: result, Reason: strings.TrimSpace(v.Reason)}
	}
	return verdicts, nil
}

// stripFences removes a surrounding markdown code fence.
func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
