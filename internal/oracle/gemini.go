package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/genai"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

// Gemini checks rules with the Gemini API.
type Gemini struct {
	client *http.Client
}

// NewGemini creates a Gemini backend whose SDK clients use client.
func NewGemini(client *http.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Check(ctx context.Context, params config.Params, rules []annotation.Rule) (map[string]Verdict, error) {
	cfg := &genai.ClientConfig{
		APIKey:     params.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.client,
	}
	if base := hostRoot(params.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	var content string
	err = retryWithBackoff(ctx, func() error {
		resp, err := client.Models.GenerateContent(ctx, params.ModelName, genai.Text(BuildUserPrompt(rules)), &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt(), genai.RoleUser),
			Temperature:       genai.Ptr(float32(params.Temperature)),
			ResponseMIMEType:  "application/json",
		})
		if err != nil {
			return classifyGeminiError(err)
		}
		content = resp.Text()
		if content == "" {
			return fmt.Errorf("empty text content in API response")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseVerdicts(content)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini request: %w", err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &rateLimitError{}
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return &authError{message: apiErr.Message}
	case apiErr.Code >= 500:
		return &serverError{statusCode: apiErr.Code, body: apiErr.Message}
	}
	return fmt.Errorf("gemini request: %w", err)
}

// hostRoot reduces a configured base URL to scheme and host; the SDK adds
// the API version itself.
func hostRoot(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
