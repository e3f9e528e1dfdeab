package transpile

import (
	"errors"
	"fmt"
)

// ErrTranspile is the sentinel behind every document rejection.
var ErrTranspile = errors.New("transpile error")

// Error points at the offending place of the original document.
// Line and Column are 0-based; Error() prints them 1-based.
type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line+1, e.Column+1, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line+1, e.Column+1, e.Msg)
}

func (e *Error) Unwrap() error {
	return ErrTranspile
}
