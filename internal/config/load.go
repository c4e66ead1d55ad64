package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// readFile loads and validates one config file without merging it.
func readFile(path string, lookup LookupFunc) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Msg: "reading config file", Err: err}
	}
	return parse(path, data, lookup)
}

// parse decodes a config file, validates it and expands placeholders in its
// API parameters.
func parse(path string, data []byte, lookup LookupFunc) (*Config, error) {
	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var dup *duplicatePatternError
		if errors.As(err, &dup) {
			return nil, &Error{Path: path, Pattern: dup.pattern, Msg: "duplicate rule override pattern"}
		}
		return nil, &Error{Path: path, Msg: "parsing config file", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &Error{Path: path, Msg: "parsing config file: unexpected data after the top-level object"}
	}

	base, err := parseBaseMode(fc.BaseConfig)
	if err != nil {
		return nil, &Error{Path: path, Msg: err.Error()}
	}

	cfg := &Config{
		Path:              path,
		Base:              base,
		IncludeExtensions: fc.IncludeExtensions,
		IncludeMimeTypes:  fc.IncludeMimeTypes,
		Ignore:            fc.Ignore,
		UseGitIgnore:      fc.UseGitIgnore,
	}

	if fc.APIConfig != nil {
		api := *fc.APIConfig
		expandAPIConfig(&api, lookup)
		if _, err := api.Params(); err != nil {
			return nil, &Error{Path: path, Msg: "apiConfig: " + err.Error()}
		}
		cfg.APIConfig = &api
	}

	if fc.APIConfigRuleOverrides != nil {
		overrides := make(Overrides, 0, len(*fc.APIConfigRuleOverrides))
		for _, ov := range *fc.APIConfigRuleOverrides {
			if err := ValidatePattern(ov.Pattern); err != nil {
				return nil, &Error{Path: path, Pattern: ov.Pattern, Msg: "invalid rule override pattern: " + err.Error()}
			}
			expandPartial(&ov.Params, lookup)
			if t := ov.Params.Temperature; t != nil && *t != "" {
				if _, err := (APIConfig{Temperature: *t}).Params(); err != nil {
					return nil, &Error{Path: path, Pattern: ov.Pattern, Msg: err.Error()}
				}
			}
			overrides = append(overrides, ov)
		}
		cfg.RuleOverrides = overrides
	}

	return cfg, nil
}

// Marshal renders a config as indented JSON, including its base mode.
// Credentials are masked.
func Marshal(c *Config) ([]byte, error) {
	type shown struct {
		BaseConfig string `json:"baseConfig"`
		*Config
	}
	masked := *c
	if c.APIConfig != nil {
		api := *c.APIConfig
		api.APIKey = MaskKey(api.APIKey)
		masked.APIConfig = &api
	}
	masked.RuleOverrides = nil
	for _, ov := range c.RuleOverrides {
		if ov.Params.APIKey != nil {
			key := MaskKey(*ov.Params.APIKey)
			ov.Params.APIKey = &key
		}
		masked.RuleOverrides = append(masked.RuleOverrides, ov)
	}
	data, err := json.MarshalIndent(shown{BaseConfig: c.Base.String(), Config: &masked}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
