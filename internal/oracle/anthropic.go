package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

const (
	anthropicHost       = "api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
	anthropicMaxTokens  = 4096
	messagesPath        = "/messages"
)

// Anthropic checks rules with the Anthropic Messages API.
type Anthropic struct {
	client *http.Client
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(client *http.Client) *Anthropic {
	return &Anthropic{client: client}
}

func (a *Anthropic) Check(ctx context.Context, params config.Params, rules []annotation.Rule) (map[string]Verdict, error) {
	temperature := params.Temperature
	body := anthropicRequest{
		Model:       params.ModelName,
		MaxTokens:   anthropicMaxTokens,
		System:      SystemPrompt(),
		Temperature: &temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: BuildUserPrompt(rules)}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := messagesURL(params.BaseURL)
	var content string
	err = retryWithBackoff(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", params.APIKey)
		httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

		httpResp, err := a.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		switch {
		case httpResp.StatusCode == http.StatusTooManyRequests:
			return &rateLimitError{}
		case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
			return &authError{message: string(respBody)}
		case httpResp.StatusCode >= 500:
			return &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
		case httpResp.StatusCode != http.StatusOK:
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		var result anthropicResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if result.StopReason == "refusal" {
			return fmt.Errorf("model refused the request")
		}
		var text strings.Builder
		for _, block := range result.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return fmt.Errorf("empty text content in API response")
		}
		content = text.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseVerdicts(content)
}

// messagesURL accepts either an API root such as https://api.anthropic.com/v1
// or the full messages endpoint.
func messagesURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, messagesPath) {
		return base
	}
	return base + messagesPath
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
