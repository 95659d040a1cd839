// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

// Token represents a single lexical token from the input.
type Token struct {
	Position

	// End is the byte offset in the original input slice.
	// It is exclusive: input[Start:End] is the token's lexeme.
	End int

	Kind Kind   // e.g. IDENTIFIER, NUMBER, LEFTBRACE, etc.
	Text string // the lexeme; for strings, the content between the quotes

	// LeadingTrivia holds the spaces and comments that precede the token.
	LeadingTrivia []*Token
}

// Is reports whether tok.Kind matches the provided kind.
//
// It returns false if tok is nil.
func (tok *Token) Is(kind Kind) bool {
	if tok == nil {
		return false
	}
	return tok.Kind == kind
}

// IsOneOf reports whether tok.Kind matches any of the provided kinds.
//
// It returns false if tok is nil.
func (tok *Token) IsOneOf(kinds ...Kind) bool {
	if tok == nil {
		return false
	}
	for _, kind := range kinds {
		if tok.Kind == kind {
			return true
		}
	}
	return false
}

// IsNot reports whether tok.Kind does not match the provided kind.
// It is the opposite of Is(kind)
//
// It returns true if tok is nil.
func (tok *Token) IsNot(kind Kind) bool {
	return !tok.Is(kind)
}

// Length is the length of the lexeme, in bytes.
func (tok *Token) Length() int {
	return tok.End - tok.Position.Start
}

// Lexeme is a helper to return the original text of the token.
func (tok *Token) Lexeme(input []byte) []byte {
	return input[tok.Position.Start:tok.End]
}

// Describe returns the token as it should appear in a diagnostic.
func (tok *Token) Describe() string {
	if tok == nil {
		return "nothing"
	}
	switch tok.Kind {
	case IDENTIFIER:
		return "identifier " + quote(tok.Text)
	case NUMBER:
		return "number " + tok.Text
	case STRING:
		return "string " + quote(tok.Text)
	case EndOfInput:
		return "end of input"
	}
	return quote(tok.Kind.String())
}

func quote(s string) string {
	return "\"" + s + "\""
}

// Position represents a position in the original source code.
// Line and Column are 1-based; Column counts runes, not bytes.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, character column
	Start  int // byte index into input (0-based); always required
}

// Span represents a range in the source: [Start, End).
type Span struct {
	// Byte offsets into the original input slice.
	// End is exclusive.
	Start int
	End   int

	// 1-based line and column of the *start* of the span.
	Line   int
	Column int
}

// Text is a helper to return the original text of the span.
func (s Span) Text(input []byte) []byte {
	return input[s.Start:s.End]
}

// spanFromToken creates a Span that covers a single token.
func spanFromToken(tok *Token) Span {
	return Span{
		Start:  tok.Position.Start,
		End:    tok.End,
		Line:   tok.Position.Line,
		Column: tok.Position.Column,
	}
}

// spanFromTokens creates a Span from the first token to the last, inclusive.
func spanFromTokens(first, last *Token) Span {
	return Span{
		Start:  first.Position.Start,
		End:    last.End,
		Line:   first.Position.Line,
		Column: first.Position.Column,
	}
}
