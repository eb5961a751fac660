package parse

import "fmt"

// Error is the failure type raised by both format parsers. File always
// carries the source name handed to Parse; Line and Column are 1-based
// best-effort diagnostics and are zero when the parser cannot attribute
// the failure unambiguously.
type Error struct {
	Message string
	File    string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
}

// Errorf builds an Error attributed to file and, when line > 0, a line.
func Errorf(file string, line int, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
	}
}
