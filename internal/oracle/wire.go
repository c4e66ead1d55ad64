package oracle

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/dshills/ailint/internal/annotation"
)

const systemPrompt = `You are a strict code auditor. You receive rules. Each rule has a name and one or more blocks; every block pairs a natural-language specification with the source code it annotates, taken from the file and lines shown.

For every rule, decide whether the blocks' source code, taken together, satisfies all of the rule's specifications. Judge only what the specifications state. Do not invent requirements.

You MUST respond with ONLY a JSON object, no markdown, no explanation, of this exact shape:
{
  "results": {
    "<rule name>": {"result": "PASS" | "FAIL", "reason": "why, required when FAIL"}
  }
}

Include exactly one entry per rule you were given, keyed by the rule's name.`

// SystemPrompt returns the instructions sent with every batch.
func SystemPrompt() string {
	return systemPrompt
}

type wireBatch struct {
	Rules []annotation.Rule `json:"rules"`
}

// Serialize renders rules in the form submitted to the oracle.
func Serialize(rules []annotation.Rule) string {
	data, err := json.MarshalIndent(wireBatch{Rules: rules}, "", "  ")
	if err != nil {
		// Rules hold only strings and ints.
		panic(err)
	}
	return string(data)
}

// Size returns the serialized size of one rule in characters.
func Size(rule annotation.Rule) int {
	return utf8.RuneCountInString(Serialize([]annotation.Rule{rule}))
}

// BuildUserPrompt wraps the serialized rules of one batch.
func BuildUserPrompt(rules []annotation.Rule) string {
	var b strings.Builder
	b.WriteString("Check the following rules.\n\n")
	b.WriteString(Serialize(rules))
	b.WriteString("\n")
	return b.String()
}
