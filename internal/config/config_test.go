package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func newTestResolver(lookup LookupFunc) *Resolver {
	return NewResolver(Options{Lookup: lookup})
}

func TestLoad_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"baseConfig": "empty", "includeExtensions": [".go"]}`)

	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.IncludeExtensions) != 1 || cfg.IncludeExtensions[0] != ".go" {
		t.Errorf("IncludeExtensions = %v", cfg.IncludeExtensions)
	}
	if cfg.Ignore == nil || len(cfg.Ignore) != 0 {
		t.Errorf("Ignore = %#v, want empty non-nil list", cfg.Ignore)
	}
	if cfg.IncludeMimeTypes == nil {
		t.Error("IncludeMimeTypes should default to an empty list")
	}
	if cfg.APIConfig != nil {
		t.Errorf("APIConfig = %+v, want nil", cfg.APIConfig)
	}
	if cfg.GitIgnore() {
		t.Error("GitIgnore should be false when unset")
	}
}

func TestLoad_Default(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{
		"baseConfig": "default",
		"includeExtensions": [".zig"],
		"ignore": ["generated/"],
		"useGitIgnore": false
	}`)

	r := newTestResolver(envMap(map[string]string{"OPENAI_API_KEY": "sk-test"}))
	cfg, err := r.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	base := r.Default()

	if got, want := len(cfg.IncludeExtensions), len(base.IncludeExtensions)+1; got != want {
		t.Fatalf("len(IncludeExtensions) = %d, want %d", got, want)
	}
	if last := cfg.IncludeExtensions[len(cfg.IncludeExtensions)-1]; last != ".zig" {
		t.Errorf("local extension should come last, got %q", last)
	}
	if cfg.IncludeExtensions[0] != base.IncludeExtensions[0] {
		t.Errorf("baseline extensions should come first")
	}
	if last := cfg.Ignore[len(cfg.Ignore)-1]; last != "generated/" {
		t.Errorf("Ignore last = %q", last)
	}
	if cfg.GitIgnore() {
		t.Error("local useGitIgnore=false should win")
	}
	if cfg.APIConfig == nil || cfg.APIConfig.APIKey != "sk-test" {
		t.Errorf("APIConfig = %+v, want default with expanded key", cfg.APIConfig)
	}
	if cfg.APIConfig.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.APIConfig.BaseURL)
	}
}

func TestLoad_Inherit(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{
		"baseConfig": "empty",
		"includeExtensions": [".go"],
		"useGitIgnore": true,
		"apiConfig": {"baseUrl": "http://root", "modelName": "root-model", "apiKey": "k", "temperature": "0.2"}
	}`)
	// mid has no config; child inherits through it from root.
	child := filepath.Join(root, "mid", "child")
	path := writeConfig(t, child, `{"includeExtensions": [".py"]}`)

	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if strings.Join(cfg.IncludeExtensions, ",") != ".go,.py" {
		t.Errorf("IncludeExtensions = %v, want [.go .py]", cfg.IncludeExtensions)
	}
	if !cfg.GitIgnore() {
		t.Error("useGitIgnore should be inherited")
	}
	if cfg.APIConfig == nil || cfg.APIConfig.ModelName != "root-model" {
		t.Errorf("APIConfig = %+v, want inherited", cfg.APIConfig)
	}
}

func TestLoad_InheritChain(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"baseConfig": "empty", "ignore": ["a"]}`)
	writeConfig(t, filepath.Join(root, "b"), `{"ignore": ["b"]}`)
	path := writeConfig(t, filepath.Join(root, "b", "c"), `{"ignore": ["c"]}`)

	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := strings.Join(cfg.Ignore, ","); got != "a,b,c" {
		t.Errorf("Ignore = %q, want a,b,c", got)
	}
}

func TestLoad_InheritWithoutAncestor(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"includeExtensions": [".go"]}`)

	_, err := newTestResolver(noEnv).Load(path)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cfgErr.Path != path {
		t.Errorf("Path = %q, want %q", cfgErr.Path, path)
	}
	if !strings.Contains(err.Error(), filepath.Dir(dir)) {
		t.Errorf("error should name the directory the walk started from: %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		pattern string
		wantErr string
	}{
		{"bare wildcard", `{"baseConfig":"empty","apiConfigRuleOverrides":{"*":{}}}`, "*", "non-empty prefix"},
		{"double wildcard", `{"baseConfig":"empty","apiConfigRuleOverrides":{"**":{}}}`, "**", "at most one"},
		{"inner wildcard", `{"baseConfig":"empty","apiConfigRuleOverrides":{"prefix_*_suffix":{}}}`, "prefix_*_suffix", "at the end"},
		{"leading wildcard", `{"baseConfig":"empty","apiConfigRuleOverrides":{"*_suffix":{}}}`, "*_suffix", "at the end"},
		{"empty pattern", `{"baseConfig":"empty","apiConfigRuleOverrides":{"":{}}}`, "", "empty"},
		{"duplicate", `{"baseConfig":"empty","apiConfigRuleOverrides":{"a":{},"a":{}}}`, "a", "duplicate"},
		{"bad base", `{"baseConfig":"parent"}`, "", "baseConfig"},
		{"unknown field", `{"baseConfig":"empty","includeExtension":[".go"]}`, "", "unknown field"},
		{"unknown override field", `{"baseConfig":"empty","apiConfigRuleOverrides":{"a":{"model":"x"}}}`, "", "unknown field"},
		{"bad temperature", `{"baseConfig":"empty","apiConfig":{"temperature":"warm"}}`, "", "not a number"},
		{"bad override temperature", `{"baseConfig":"empty","apiConfigRuleOverrides":{"a":{"temperature":"hot"}}}`, "a", "not a number"},
		{"NaN temperature", `{"baseConfig":"empty","apiConfig":{"modelName":"m","temperature":"NaN"}}`, "", "not a finite number"},
		{"infinite temperature", `{"baseConfig":"empty","apiConfig":{"modelName":"m","temperature":"Inf"}}`, "", "not a finite number"},
		{"negative infinite temperature", `{"baseConfig":"empty","apiConfig":{"temperature":"-Inf"}}`, "", "not a finite number"},
		{"NaN override temperature", `{"baseConfig":"empty","apiConfigRuleOverrides":{"a":{"temperature":"nan"}}}`, "a", "not a finite number"},
		{"invalid json", `{"baseConfig":`, "", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := newTestResolver(noEnv).Load(path)
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cfgErr.Path != path {
				t.Errorf("Path = %q, want %q", cfgErr.Path, path)
			}
			if cfgErr.Pattern != tt.pattern {
				t.Errorf("Pattern = %q, want %q", cfgErr.Pattern, tt.pattern)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"a", "a*", "test_security_*", "exact.name"}
	for _, p := range valid {
		if err := ValidatePattern(p); err != nil {
			t.Errorf("ValidatePattern(%q) = %v, want nil", p, err)
		}
	}
	invalid := []string{"", "*", "**", "a**", "prefix_*_suffix", "*a"}
	for _, p := range invalid {
		if err := ValidatePattern(p); err == nil {
			t.Errorf("ValidatePattern(%q) = nil, want error", p)
		}
	}
}

func TestLoad_TemperatureNumber(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"baseConfig":"empty","apiConfig":{"baseUrl":"u","modelName":"m","apiKey":"k","temperature":0.7}}`)
	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	p, err := cfg.APIConfig.Params()
	if err != nil {
		t.Fatalf("Params error: %v", err)
	}
	if p.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", p.Temperature)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{
		"baseConfig": "empty",
		"apiConfig": {
			"baseUrl": "${BASE:-http://localhost:8080}/v1",
			"modelName": "${MODEL}",
			"apiKey": "${KEY:-none}",
			"temperature": "${TEMP:-0.5}"
		},
		"apiConfigRuleOverrides": {"x": {"modelName": "${OVERRIDE_MODEL:-fallback}"}}
	}`)
	r := newTestResolver(envMap(map[string]string{"MODEL": "gpt-x", "KEY": ""}))
	cfg, err := r.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	api := cfg.APIConfig
	if api.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("BaseURL = %q", api.BaseURL)
	}
	if api.ModelName != "gpt-x" {
		t.Errorf("ModelName = %q", api.ModelName)
	}
	if api.APIKey != "none" {
		t.Errorf("APIKey = %q, want default for empty variable", api.APIKey)
	}
	if api.Temperature != "0.5" {
		t.Errorf("Temperature = %q", api.Temperature)
	}
	if got := *cfg.RuleOverrides[0].Params.ModelName; got != "fallback" {
		t.Errorf("override ModelName = %q", got)
	}
}

func TestExpand(t *testing.T) {
	lookup := envMap(map[string]string{"A": "1", "EMPTY": ""})
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${A}", "1"},
		{"x${A}y${A}", "x1y1"},
		{"${MISSING}", ""},
		{"${MISSING:-d}", "d"},
		{"${EMPTY:-d}", "d"},
		{"${A:-d}", "1"},
		{"$A", "$A"},
		{"${MISSING:-}", ""},
	}
	for _, tt := range tests {
		if got := Expand(tt.in, lookup); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpand_OncePerLoad(t *testing.T) {
	env := map[string]string{"MODEL": "first"}
	path := writeConfig(t, t.TempDir(), `{"baseConfig":"empty","apiConfig":{"modelName":"${MODEL}"}}`)
	r := newTestResolver(envMap(env))

	cfg, err := r.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	env["MODEL"] = "second"
	again, err := r.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.APIConfig.ModelName != "first" || again.APIConfig.ModelName != "first" {
		t.Errorf("cached load should keep the first expansion, got %q and %q",
			cfg.APIConfig.ModelName, again.APIConfig.ModelName)
	}

	r.ClearCache()
	fresh, err := r.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if fresh.APIConfig.ModelName != "second" {
		t.Errorf("after ClearCache ModelName = %q, want %q", fresh.APIConfig.ModelName, "second")
	}
}

func TestOverrides_KeepOrder(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"baseConfig":"empty","apiConfigRuleOverrides":{"z":{},"a*":{},"m":{}}}`)
	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	var got []string
	for _, ov := range cfg.RuleOverrides {
		got = append(got, ov.Pattern)
	}
	if strings.Join(got, ",") != "z,a*,m" {
		t.Errorf("patterns = %v, want file order", got)
	}
}

func TestMarshal_MasksKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"baseConfig":"empty","apiConfig":{"apiKey":"sk-abcdefghijkl"},"apiConfigRuleOverrides":{"a":{"apiKey":"sk-zyxwvutsrqpo"}}}`)
	cfg, err := newTestResolver(noEnv).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "sk-abcdefghijkl") || strings.Contains(out, "sk-zyxwvutsrqpo") {
		t.Errorf("credentials leaked: %s", out)
	}
	if !strings.Contains(out, `"baseConfig": "empty"`) {
		t.Errorf("missing base mode: %s", out)
	}
	if cfg.APIConfig.APIKey != "sk-abcdefghijkl" {
		t.Error("Marshal must not modify the cached config")
	}
}
