// Package redact masks secrets in fragment source before it leaves the
// machine.
//
// Detection is heuristic. It covers API keys and secret assignments, JWTs,
// bearer tokens, private key headers, AWS keys and provider-specific
// tokens (GitHub, Slack, Anthropic, OpenAI).
package redact
