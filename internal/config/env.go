package config

import "regexp"

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LookupFunc returns the value of an environment variable and whether it is
// set.
type LookupFunc func(name string) (string, bool)

// Expand replaces ${NAME} and ${NAME:-default} placeholders in s. The default
// is used when NAME is unset or empty; without a default such a placeholder
// becomes the empty string.
func Expand(s string, lookup LookupFunc) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := placeholderPattern.FindStringSubmatch(match)
		if v, ok := lookup(m[1]); ok && v != "" {
			return v
		}
		return m[2]
	})
}

func expandAPIConfig(c *APIConfig, lookup LookupFunc) {
	c.BaseURL = Expand(c.BaseURL, lookup)
	c.ModelName = Expand(c.ModelName, lookup)
	c.APIKey = Expand(c.APIKey, lookup)
	c.Temperature = Temperature(Expand(string(c.Temperature), lookup))
}

func expandPartial(p *PartialAPIConfig, lookup LookupFunc) {
	expandPtr := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := Expand(*s, lookup)
		return &v
	}
	p.BaseURL = expandPtr(p.BaseURL)
	p.ModelName = expandPtr(p.ModelName)
	p.APIKey = expandPtr(p.APIKey)
	if p.Temperature != nil {
		v := Temperature(Expand(string(*p.Temperature), lookup))
		p.Temperature = &v
	}
}
