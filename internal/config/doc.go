// Package config loads, validates and merges ailint configuration files.
//
// Each directory may carry a .ailint.json file. A file's baseConfig selects
// how it is merged:
//   - "empty": the file stands alone
//   - "default": the file extends the built-in default configuration
//   - omitted: the file extends the nearest .ailint.json in an ancestor
//     directory, which must exist
//
// List fields are concatenated (base first), scalar fields are taken from the
// file when present and from the base otherwise.
//
// A [Resolver] caches raw loads, merged configs and ancestor walks for the
// lifetime of one run. [Resolver.ResolveParameters] picks the API parameters
// for a (file, rule) pair from the rule overrides of every config above the
// file: exact names beat wildcards, longer wildcard prefixes beat shorter
// ones, and nearer directories break ties.
package config
