package config

import (
	"errors"
	"strings"
)

const wildcard = "*"

// ValidatePattern checks a rule override pattern. A pattern is either an
// exact rule name or a non-empty prefix followed by a single trailing "*".
func ValidatePattern(pattern string) error {
	switch n := strings.Count(pattern, wildcard); {
	case pattern == "":
		return errors.New("pattern must not be empty")
	case n == 0:
		return nil
	case n > 1:
		return errors.New("pattern may contain at most one \"*\"")
	case !strings.HasSuffix(pattern, wildcard):
		return errors.New("\"*\" is only allowed at the end of a pattern")
	case len(pattern) == len(wildcard):
		return errors.New("\"*\" needs a non-empty prefix")
	}
	return nil
}

// matchPattern reports whether pattern matches rule. exact is true for a
// wildcard-free pattern; prefixLen is the length of the literal prefix.
func matchPattern(pattern, rule string) (ok, exact bool, prefixLen int) {
	prefix, isWildcard := strings.CutSuffix(pattern, wildcard)
	if !isWildcard {
		return pattern == rule, true, len(pattern)
	}
	return strings.HasPrefix(rule, prefix), false, len(prefix)
}
