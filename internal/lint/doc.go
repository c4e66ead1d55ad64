// Package lint runs one check: it discovers files, parses their rule
// annotations, assembles rules across files, resolves each rule to one API
// parameter set, and submits size-bounded batches to an oracle one at a
// time. Verdicts come back as a Report keyed by rule name.
//
// Batches are submitted sequentially in discovery order. Only file reading
// and parsing run in parallel, and their results are merged in discovery
// order so the outcome does not depend on scheduling.
package lint
