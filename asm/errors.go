// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "fmt"

// Pos identifies a source position: the file and line at which a token, line,
// or label reference was parsed.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Error is a fatal assembler diagnostic. Assembly aborts on the first one
// encountered (§7): nothing is retried or recovered, and partial output is
// never produced.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("TASMError: %s\n    %s", e.Pos, e.Msg)
}

func newError(pos Pos, msg string) *Error {
	return &Error{Pos: pos, Msg: msg}
}

func errf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
