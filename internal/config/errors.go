package config

import "fmt"

// Error is a configuration error. It always names the offending file and,
// for pattern problems, the pattern.
type Error struct {
	Path    string
	Pattern string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	s := "config"
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Pattern != "" {
		s += fmt.Sprintf(": pattern %q", e.Pattern)
	}
	s += ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }
