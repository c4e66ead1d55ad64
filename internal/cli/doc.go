// Package cli wires together the Cobra command tree for the ailint binary.
//
// It defines the root command and its subcommands (check, init, config,
// cache, version), loads .env files, builds the zap logger, runs the lint
// engine, and returns deterministic exit codes for CI gating.
package cli
