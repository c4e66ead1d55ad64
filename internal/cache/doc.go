// Package cache stores oracle verdicts on disk between runs.
//
// An entry is keyed by a SHA-256 hash of the API parameters (without the
// credential) and the wire form of a single rule, so any change to a
// fragment, its specification or the model settings misses the cache.
// Entries older than the TTL are treated as misses and removed on read.
//
// The default directory is $XDG_CACHE_HOME/ailint or the OS equivalent.
package cache
