// Package oracle submits batches of rules to an LLM and returns one verdict
// per rule.
//
// Three backends are supported: any OpenAI-compatible chat completions
// endpoint (OpenAI, Ollama, LM Studio), the Anthropic Messages API when the
// configured baseUrl points at api.anthropic.com, and Google Gemini through
// the genai SDK when it points at generativelanguage.googleapis.com.
// [Router] picks the backend per call from the resolved parameters.
//
// Rules travel as JSON produced by [Serialize]; [Size] measures a rule with
// the same encoding so batch sizes are exact. Transports retry rate-limited
// requests with exponential back-off; every other failure, including a
// response that omits a submitted rule, is returned to the caller. Retrying
// stops at the transport: a failed batch is never re-run, and the first
// error ends the whole check.
package oracle
