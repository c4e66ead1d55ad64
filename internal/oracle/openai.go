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

const chatCompletionsPath = "/chat/completions"

// OpenAI checks rules against an OpenAI-compatible chat completions API.
type OpenAI struct {
	client *http.Client
}

// NewOpenAI creates an OpenAI backend using client.
func NewOpenAI(client *http.Client) *OpenAI {
	return &OpenAI{client: client}
}

func (o *OpenAI) Check(ctx context.Context, params config.Params, rules []annotation.Rule) (map[string]Verdict, error) {
	temperature := params.Temperature
	body := openaiRequest{
		Model: params.ModelName,
		Messages: []openaiMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: BuildUserPrompt(rules)},
		},
		Temperature:    &temperature,
		ResponseFormat: &openaiResponseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := chatURL(params.BaseURL)
	var content string
	err = retryWithBackoff(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if params.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+params.APIKey)
		}

		httpResp, err := o.client.Do(httpReq)
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

		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		msg := result.Choices[0].Message
		if msg.Refusal != "" {
			return fmt.Errorf("model refused the request: %s", msg.Refusal)
		}
		if msg.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}
		content = msg.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseVerdicts(content)
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, chatCompletionsPath) {
		return base
	}
	return base + chatCompletionsPath
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}
