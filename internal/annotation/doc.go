// Package annotation extracts rule annotations from source text.
//
// An annotated fragment is enclosed by a begin-marker and an end-marker that
// name the same rules in the same order:
//
//	// AI_SPEC_BEGIN(def_operations): "defines all available operations"
//	...
//	// AI_SPEC_END(def_operations)
//
// Markers are found by their text, so any comment delimiter works (// # --
// /* */ <!-- -->). Each marker must sit on its own line: a fragment's source
// is the lines strictly between its marker lines, so a begin- and end-marker
// on the same line are never paired. Malformed annotations never produce an
// error; they are simply not extracted.
package annotation
