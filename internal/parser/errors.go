package parser

import (
	"errors"
	"fmt"
)

// SyntaxError reports a fatal markup error at a source position. Err is one
// of the apperr sentinels.
type SyntaxError struct {
	Err  error
	Pos  Pos
	Near string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("line %d: %v", e.Pos.StartLine+1, e.Err)
	}
	return fmt.Sprintf("line %d: %v near %q", e.Pos.StartLine+1, e.Err, e.Near)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

const maxNear = 40

func errAt(sentinel error, tok Token) *SyntaxError {
	return &SyntaxError{Err: sentinel, Pos: tok.Pos, Near: truncate(tok.Content)}
}

// errAtEnd is used when the stream runs out; the last token gives the position.
func errAtEnd(sentinel error, tokens []Token) *SyntaxError {
	if len(tokens) == 0 {
		return &SyntaxError{Err: sentinel}
	}
	return &SyntaxError{Err: sentinel, Pos: tokens[len(tokens)-1].Pos}
}

// shiftLines moves the reported line of a SyntaxError down by n lines. It is
// used when the lexed text started n lines into the file.
func shiftLines(err error, n int) error {
	var se *SyntaxError
	if n == 0 || !errors.As(err, &se) {
		return err
	}
	se.Pos.StartLine += n
	se.Pos.EndLine += n
	return err
}
