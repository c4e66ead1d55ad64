// Package assemble merges rules found across files, checks that every rule
// resolves to one set of API parameters, and packs rules into batches for
// the oracle.
//
// Batches never mix parameter sets and never split a rule. Within one
// parameter set, rules keep discovery order and a new batch starts when the
// next rule would push the batch past its character ceiling.
package assemble
