// Package output renders check reports.
//
// Formats:
//   - text: terminal output with PASS/FAIL colouring (default)
//   - json: the full report
//   - yaml: the full report
//   - markdown: a summary table and one section per rule, for PR comments
//   - sarif: SARIF v2.1.0 with one result per failed rule
//
// Use [GetWriter] to obtain a [Writer] for a format name, or [WriteReport]
// to write straight to a file or stdout.
package output
