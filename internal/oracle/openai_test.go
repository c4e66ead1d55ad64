package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/config"
)

func testRules() []annotation.Rule {
	return []annotation.Rule{
		{Name: "def_operations", Blocks: []annotation.Block{
			{Spec: "defines all available operations", Source: "enum Op { Add, Subtract }", FilePath: "ops.ts", StartLine: 1, EndLine: 3},
		}},
	}
}

func replyWith(content string) openaiResponse {
	return openaiResponse{Choices: []openaiChoice{{Message: openaiMessage{Role: "assistant", Content: content}}}}
}

func TestOpenAI_Check(t *testing.T) {
	var got openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(replyWith(`{"results":{"def_operations":{"result":"PASS"}}}`))
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	params := config.Params{BaseURL: server.URL + "/v1/", ModelName: "gpt-test", APIKey: "test-key", Temperature: 0.2}
	verdicts, err := o.Check(context.Background(), params, testRules())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if v := verdicts["def_operations"]; v.Result != Pass {
		t.Errorf("verdict = %+v, want PASS", v)
	}
	if got.Model != "gpt-test" {
		t.Errorf("Model = %q", got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", got.Temperature)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("ResponseFormat = %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 2 || !strings.Contains(got.Messages[1].Content, "defines all available operations") {
		t.Errorf("user message does not carry the rules: %+v", got.Messages)
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		json.NewEncoder(w).Encode(replyWith(`{"results":{"def_operations":{"result":"FAIL","reason":"missing divide"}}}`))
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	verdicts, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m"}, testRules())
	if err != nil {
		t.Fatalf("Check error after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attempts)
	}
	if v := verdicts["def_operations"]; v.Result != Fail || v.Reason != "missing divide" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestOpenAI_RateLimitGivesUp(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	_, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m"}, testRules())
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if attempts != maxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, maxRetries+1)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	_, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m", APIKey: "bad"}, testRules())
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("auth errors must not be retried, got %d attempts", attempts)
	}
}

func TestOpenAI_ServerErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	_, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m"}, testRules())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected server error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestOpenAI_Refusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{Choices: []openaiChoice{{Message: openaiMessage{Refusal: "no"}}}})
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	_, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m"}, testRules())
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected refusal error, got %v", err)
	}
}

func TestOpenAI_MalformedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(replyWith("I think it passes."))
	}))
	defer server.Close()

	o := NewOpenAI(server.Client())
	_, err := o.Check(context.Background(), config.Params{BaseURL: server.URL, ModelName: "m"}, testRules())
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestChatURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:1234/v1/chat/completions", "http://localhost:1234/v1/chat/completions"},
	}
	for _, tt := range tests {
		if got := chatURL(tt.in); got != tt.want {
			t.Errorf("chatURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRouter_RequiresModel(t *testing.T) {
	r := NewRouter(nil)
	_, err := r.Check(context.Background(), config.Params{BaseURL: "http://x"}, testRules())
	if err == nil || !strings.Contains(err.Error(), "modelName") {
		t.Fatalf("expected modelName error, got %v", err)
	}
}

func TestIsGemini(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://generativelanguage.googleapis.com/v1beta", true},
		{"https://GenerativeLanguage.googleapis.com", true},
		{"https://api.openai.com/v1", false},
		{"http://localhost:11434/v1", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		if got := IsGemini(tt.url); got != tt.want {
			t.Errorf("IsGemini(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestHostRoot(t *testing.T) {
	if got := hostRoot("https://generativelanguage.googleapis.com/v1beta/models"); got != "https://generativelanguage.googleapis.com/" {
		t.Errorf("hostRoot = %q", got)
	}
	if got := hostRoot(""); got != "" {
		t.Errorf("hostRoot(\"\") = %q", got)
	}
}
