// Ailint checks source code against natural-language specifications written
// in its comments.
//
// Annotate a span of code with a begin and end marker naming one or more
// rules:
//
//	// AI_SPEC_BEGIN(def_operations): "defines all available operations"
//	...
//	// AI_SPEC_END(def_operations)
//
// Blocks that share a rule name are checked together by a language model
// configured through .ailint.json files.
//
// Usage:
//
//	ailint check [paths...]          # check rules under paths (default .)
//	ailint init [dir]                # write a starter .ailint.json
//	ailint config show [dir]         # print the effective config of dir
//	ailint config resolve FILE RULE  # print the API parameters of RULE in FILE
//	ailint cache show|clear          # inspect or clear cached verdicts
package main
