package js

import (
	"errors"
	"fmt"
)

// SyntaxError reports a lexing or parsing failure. Line and Col are
// 1-based.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string

	// AtEnd is set when the parser ran out of input, so more text could
	// still make the source valid.
	AtEnd bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a syntax error caused by input that
// ended early, such as an unclosed block.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.AtEnd
}

// ErrorKind classifies runtime faults the way script sees them.
type ErrorKind int

const (
	TypeError ErrorKind = iota
	ReferenceError
	RangeError
)

func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case ReferenceError:
		return "ReferenceError"
	case RangeError:
		return "RangeError"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// RuntimeError is a fault raised while evaluating a script. A zero Line
// means the position is unknown.
type RuntimeError struct {
	Kind ErrorKind
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Col, e.Msg)
}

func throw(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
