package config

// Default returns the built-in baseline configuration with placeholders
// expanded through lookup.
func Default(lookup LookupFunc) *Config {
	useGitIgnore := true
	api := APIConfig{
		BaseURL:     "${AILINT_BASE_URL:-https://api.openai.com/v1}",
		ModelName:   "${AILINT_MODEL:-gpt-4o-mini}",
		APIKey:      "${AILINT_API_KEY}",
		Temperature: "${AILINT_TEMPERATURE:-0}",
	}
	// Placeholders do not nest, so the OPENAI_API_KEY fallback is chosen here.
	if v, ok := lookup("AILINT_API_KEY"); !ok || v == "" {
		api.APIKey = "${OPENAI_API_KEY}"
	}
	expandAPIConfig(&api, lookup)

	return &Config{
		Base: BaseEmpty,
		IncludeExtensions: []string{
			".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs",
			".java", ".kt", ".scala", ".rs", ".c", ".h", ".cc", ".cpp", ".hpp",
			".cs", ".rb", ".php", ".swift", ".sh", ".bash", ".sql",
			".html", ".css", ".scss", ".vue", ".svelte",
			".yaml", ".yml", ".toml", ".md",
		},
		IncludeMimeTypes: []string{},
		Ignore: []string{
			".git/", "node_modules/", "vendor/", "dist/", "build/", "target/",
			"*.min.js", "*.lock",
		},
		UseGitIgnore: &useGitIgnore,
		APIConfig:    &api,
	}
}
