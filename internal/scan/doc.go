// Package scan discovers the files to check under a set of roots.
//
// Which files qualify is decided per directory by the effective config of
// that directory: includeExtensions and includeMimeTypes select files,
// ignore patterns and (with useGitIgnore) .gitignore files exclude them.
package scan
