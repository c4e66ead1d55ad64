package config

import (
	"fmt"
	"strconv"
)

// Params are the resolved parameters of one oracle call. Params is comparable
// and is used as a grouping key.
type Params struct {
	BaseURL     string  `json:"baseUrl"`
	ModelName   string  `json:"modelName"`
	APIKey      string  `json:"apiKey"`
	Temperature float64 `json:"temperature"`
}

// String renders p with the credential masked.
func (p Params) String() string {
	return fmt.Sprintf("{baseUrl: %s, modelName: %s, apiKey: %s, temperature: %s}",
		p.BaseURL, p.ModelName, MaskKey(p.APIKey), strconv.FormatFloat(p.Temperature, 'f', -1, 64))
}

// MaskKey hides all but the last four characters of a credential.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "(unset)"
	case len(key) <= 8:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}
