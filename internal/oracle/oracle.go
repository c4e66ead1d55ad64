package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

// Result is the outcome of checking one rule.
type Result string

const (
	Pass Result = "PASS"
	Fail Result = "FAIL"
)

// Verdict is the oracle's judgment of one rule.
type Verdict struct {
	Result Result `json:"result" yaml:"result"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Oracle checks a batch of rules with one parameter set. It returns exactly
// one verdict per submitted rule or an error for the whole batch.
type Oracle interface {
	Check(ctx context.Context, params config.Params, rules []annotation.Rule) (map[string]Verdict, error)
}

// ContractError reports a response that does not cover the submitted rules
// exactly.
type ContractError struct {
	Missing    []string
	Unexpected []string
}

func (e *ContractError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing verdicts for "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "verdicts for rules that were not submitted: "+strings.Join(e.Unexpected, ", "))
	}
	return "oracle response " + strings.Join(parts, "; ")
}

// CheckVerdicts verifies that verdicts holds one entry per rule and nothing
// else.
func CheckVerdicts(rules []annotation.Rule, verdicts map[string]Verdict) error {
	submitted := make(map[string]bool, len(rules))
	var missing []string
	for _, r := range rules {
		submitted[r.Name] = true
		if _, ok := verdicts[r.Name]; !ok {
			missing = append(missing, r.Name)
		}
	}
	var unexpected []string
	for name := range verdicts {
		if !submitted[name] {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	if len(missing) > 0 || len(unexpected) > 0 {
		return &ContractError{Missing: missing, Unexpected: unexpected}
	}
	return nil
}

const geminiHost = "generativelanguage.googleapis.com"

// Router dispatches each call to the backend matching its parameters.
type Router struct {
	openai    *OpenAI
	gemini    *Gemini
	anthropic *Anthropic
}

// NewRouter creates a Router. A nil client uses a client with a two minute
// timeout.
func NewRouter(client *http.Client) *Router {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Router{
		openai:    NewOpenAI(client),
		gemini:    NewGemini(client),
		anthropic: NewAnthropic(client),
	}
}

func (r *Router) Check(ctx context.Context, params config.Params, rules []annotation.Rule) (map[string]Verdict, error) {
	if params.ModelName == "" {
		return nil, fmt.Errorf("no modelName configured for base URL %s", params.BaseURL)
	}
	switch {
	case IsGemini(params.BaseURL):
		return r.gemini.Check(ctx, params, rules)
	case IsAnthropic(params.BaseURL):
		return r.anthropic.Check(ctx, params, rules)
	default:
		return r.openai.Check(ctx, params, rules)
	}
}

// IsGemini reports whether baseURL points at the Gemini API.
func IsGemini(baseURL string) bool {
	return hostIs(baseURL, geminiHost)
}

// IsAnthropic reports whether baseURL points at the Anthropic API.
func IsAnthropic(baseURL string) bool {
	return hostIs(baseURL, anthropicHost)
}

func hostIs(baseURL, host string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}
