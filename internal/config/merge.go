package config

// merge layers local over base. Lists are concatenated base-first; scalar
// fields come from local when set.
func merge(base, local *Config) *Config {
	out := &Config{
		Path:              local.Path,
		Base:              local.Base,
		IncludeExtensions: concat(base.IncludeExtensions, local.IncludeExtensions),
		IncludeMimeTypes:  concat(base.IncludeMimeTypes, local.IncludeMimeTypes),
		Ignore:            concat(base.Ignore, local.Ignore),
		UseGitIgnore:      base.UseGitIgnore,
		APIConfig:         base.APIConfig,
		RuleOverrides:     base.RuleOverrides,
	}
	if local.UseGitIgnore != nil {
		out.UseGitIgnore = local.UseGitIgnore
	}
	if local.APIConfig != nil {
		out.APIConfig = local.APIConfig
	}
	if local.RuleOverrides != nil {
		out.RuleOverrides = local.RuleOverrides
	}
	return out
}

// standalone returns c as its own effective config with unset lists made
// empty.
func standalone(c *Config) *Config {
	out := *c
	out.IncludeExtensions = concat(nil, c.IncludeExtensions)
	out.IncludeMimeTypes = concat(nil, c.IncludeMimeTypes)
	out.Ignore = concat(nil, c.Ignore)
	return &out
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
