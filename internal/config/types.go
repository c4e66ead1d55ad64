package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FileName is the name of a per-directory configuration file.
const FileName = ".ailint.json"

// BaseMode selects how a config file is merged with its base.
type BaseMode int

const (
	BaseInherit BaseMode = iota
	BaseEmpty
	BaseDefault
)

func (m BaseMode) String() string {
	switch m {
	case BaseEmpty:
		return "empty"
	case BaseDefault:
		return "default"
	default:
		return "inherit"
	}
}

func parseBaseMode(s *string) (BaseMode, error) {
	if s == nil {
		return BaseInherit, nil
	}
	switch *s {
	case "empty":
		return BaseEmpty, nil
	case "default":
		return BaseDefault, nil
	default:
		return BaseInherit, fmt.Errorf("baseConfig must be \"empty\", \"default\" or omitted, got %q", *s)
	}
}

// Temperature is a sampling temperature setting. It decodes from either a
// JSON string (which may hold ${VAR} placeholders) or a JSON number.
type Temperature string

func (t *Temperature) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Temperature(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("temperature must be a string or a number")
	}
	*t = Temperature(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// APIConfig holds the base oracle parameters of a config file.
type APIConfig struct {
	BaseURL     string      `json:"baseUrl"`
	ModelName   string      `json:"modelName"`
	APIKey      string      `json:"apiKey"`
	Temperature Temperature `json:"temperature"`
}

// PartialAPIConfig overrides the fields of an APIConfig that are set.
type PartialAPIConfig struct {
	BaseURL     *string      `json:"baseUrl,omitempty"`
	ModelName   *string      `json:"modelName,omitempty"`
	APIKey      *string      `json:"apiKey,omitempty"`
	Temperature *Temperature `json:"temperature,omitempty"`
}

// Apply returns a copy of c with the fields set in p replaced.
func (c APIConfig) Apply(p PartialAPIConfig) APIConfig {
	if p.BaseURL != nil {
		c.BaseURL = *p.BaseURL
	}
	if p.ModelName != nil {
		c.ModelName = *p.ModelName
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.Temperature != nil {
		c.Temperature = *p.Temperature
	}
	return c
}

// Params converts c into resolved parameters. An empty temperature is 0;
// any other must be a finite number.
func (c APIConfig) Params() (Params, error) {
	p := Params{
		BaseURL:   c.BaseURL,
		ModelName: c.ModelName,
		APIKey:    c.APIKey,
	}
	if c.Temperature != "" {
		f, err := strconv.ParseFloat(string(c.Temperature), 64)
		if err != nil {
			return Params{}, fmt.Errorf("temperature %q is not a number", string(c.Temperature))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Params{}, fmt.Errorf("temperature %q is not a finite number", string(c.Temperature))
		}
		p.Temperature = f
	}
	return p, nil
}

// RuleOverride maps a rule-name pattern to partial API parameters.
type RuleOverride struct {
	Pattern string
	Params  PartialAPIConfig
}

// Overrides is an ordered set of rule overrides. It decodes from a JSON
// object, keeping key order and rejecting duplicate keys.
type Overrides []RuleOverride

// duplicatePatternError reports a pattern that appears twice in one object.
type duplicatePatternError struct {
	pattern string
}

func (e *duplicatePatternError) Error() string {
	return fmt.Sprintf("duplicate rule override pattern %q", e.pattern)
}

func (o *Overrides) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("apiConfigRuleOverrides must be an object")
	}

	seen := make(map[string]bool)
	out := Overrides{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		if seen[key] {
			return &duplicatePatternError{pattern: key}
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var p PartialAPIConfig
		vdec := json.NewDecoder(bytes.NewReader(raw))
		vdec.DisallowUnknownFields()
		if err := vdec.Decode(&p); err != nil {
			return fmt.Errorf("override %q: %w", key, err)
		}
		out = append(out, RuleOverride{Pattern: key, Params: p})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (o Overrides) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ov := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ov.Pattern)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ov.Params)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Config is a configuration, either as loaded from one file or as merged
// with its base. Pointer and nil-slice fields distinguish unset from empty.
// Configs returned by a Resolver are shared and must not be modified.
type Config struct {
	Path              string     `json:"-"`
	Base              BaseMode   `json:"-"`
	IncludeExtensions []string   `json:"includeExtensions"`
	IncludeMimeTypes  []string   `json:"includeMimeTypes"`
	Ignore            []string   `json:"ignore"`
	UseGitIgnore      *bool      `json:"useGitIgnore,omitempty"`
	APIConfig         *APIConfig `json:"apiConfig,omitempty"`
	RuleOverrides     Overrides  `json:"apiConfigRuleOverrides,omitempty"`
}

// GitIgnore reports whether .gitignore files should be honoured.
func (c *Config) GitIgnore() bool {
	return c.UseGitIgnore != nil && *c.UseGitIgnore
}

// fileConfig is the on-disk shape of a config file.
type fileConfig struct {
	BaseConfig             *string    `json:"baseConfig"`
	IncludeExtensions      []string   `json:"includeExtensions"`
	IncludeMimeTypes       []string   `json:"includeMimeTypes"`
	Ignore                 []string   `json:"ignore"`
	UseGitIgnore           *bool      `json:"useGitIgnore"`
	APIConfig              *APIConfig `json:"apiConfig"`
	APIConfigRuleOverrides *Overrides `json:"apiConfigRuleOverrides"`
}
