// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"fmt"
	"strings"
)

// LexError is returned when the lexer finds a character it cannot scan
// or a string literal that is never closed.
type LexError struct {
	Line    int
	Column  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseError is returned when the token sequence does not match the grammar.
// Expected names every token kind that would have been accepted.
type ParseError struct {
	Line     int
	Column   int
	Expected []string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message())
}

// Message is the error text without the location prefix.
func (e *ParseError) Message() string {
	switch len(e.Expected) {
	case 0:
		return fmt.Sprintf("unexpected %s", e.Found)
	case 1:
		return fmt.Sprintf("expected %s, found %s", e.Expected[0], e.Found)
	}
	return fmt.Sprintf("expected one of %s, found %s", strings.Join(e.Expected, ", "), e.Found)
}

// Stage names the pipeline step that rejected the source.
type Stage string

const (
	StageLex   Stage = "lex"
	StageParse Stage = "parse"
)

// TranspileError is the only error Transpile returns for bad input.
// It unwraps to the *LexError or *ParseError that caused it.
type TranspileError struct {
	Stage   Stage
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *TranspileError) Error() string {
	return fmt.Sprintf("%s error at %d:%d: %s", e.Stage, e.Line, e.Column, e.Message)
}

func (e *TranspileError) Unwrap() error {
	return e.Err
}

// Span returns a zero-width span at the error location for diagnostics.
func (e *TranspileError) Span() Span {
	return Span{Line: e.Line, Column: e.Column}
}

func newTranspileError(err error) error {
	switch e := err.(type) {
	case *LexError:
		return &TranspileError{Stage: StageLex, Line: e.Line, Column: e.Column, Message: e.Message, Err: e}
	case *ParseError:
		return &TranspileError{Stage: StageParse, Line: e.Line, Column: e.Column, Message: e.Message(), Err: e}
	}
	return err
}
