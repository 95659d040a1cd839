// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Lexer reads UTF-8 source one rune at a time and never backs up.
//
// r is the rune under the cursor and input[posCurrRune:posNextRune] is its
// encoding. At the end both positions equal length and r is EOF. A CRLF
// pair reads as one '\n'; a lone CR reads as a space.
//
// A token starts with setAnchor, grows with advance while r belongs to it,
// and its lexeme is input[anchorPos:posCurrRune]. Spaces and comments are
// not tokens. They ride along as LeadingTrivia of the next token, the
// EndOfInput token included.
type Lexer struct {
	name        string // name of the input source
	r           rune   // current rune
	line        int    // line number of current rune
	column      int    // column number of current rune
	posCurrRune int    // position of current rune
	posNextRune int    // position of next rune
	length      int    // length of input buffer
	input       []byte

	anchorPos    int
	anchorLine   int
	anchorColumn int

	// canonical end of input token, returned for every Scan after the end
	endToken *Token

	// logging
	logger     *slog.Logger
	tokenCount int
}

// NewLexer returns a lexer for input. The logger may be nil.
func NewLexer(name string, input []byte, logger *slog.Logger) *Lexer {
	l := &Lexer{
		name:   name,
		input:  input,
		length: len(input),
		line:   1,
		column: 0,
		logger: logger,
	}
	// prime r with the first rune
	l.advance()
	return l
}

// Tokenize scans the entire input and returns the significant tokens.
// The last token is always EndOfInput.
func Tokenize(source []byte) ([]*Token, error) {
	return NewLexer("", source, nil).ScanAll()
}

// ScanAll calls Scan until it returns EndOfInput or an error.
func (l *Lexer) ScanAll() ([]*Token, error) {
	var toks []*Token
	for {
		tok, err := l.Scan()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EndOfInput {
			return toks, nil
		}
	}
}

// Scan returns the next significant token.
// Leading spaces and comments are put in the token's leading trivia.
//
// After the end every call returns the same EndOfInput token.
func (l *Lexer) Scan() (*Token, error) {
	if l.endToken != nil {
		return l.endToken, nil
	}

	var leadingTrivia []*Token
	for {
		if l.iseof() {
			l.seteof(leadingTrivia)
			return l.endToken, nil
		}
		l.setAnchor()
		if l.scanSpaces() == SPACE {
			leadingTrivia = append(leadingTrivia, l.token(SPACE, nil))
			continue
		}
		if l.scanComment() == COMMENT {
			leadingTrivia = append(leadingTrivia, l.token(COMMENT, nil))
			continue
		}
		break
	}

	ch := l.peekChar()
	switch {
	case isIdentStart(ch):
		l.scanIdentifier()
		tok := l.token(IDENTIFIER, leadingTrivia)
		tok.Text = norm.NFC.String(tok.Text)
		if norm.NFKC.String(tok.Text) != tok.Text {
			// Python folds identifiers with NFKC
			return nil, &LexError{
				Line:    l.anchorLine,
				Column:  l.anchorColumn,
				Message: fmt.Sprintf("identifier %q has a compatibility character", tok.Text),
			}
		}
		if kw, ok := Keywords[tok.Text]; ok {
			tok.Kind = kw
		}
		return tok, nil
	case isDigit(ch):
		l.scanNumber()
		return l.token(NUMBER, leadingTrivia), nil
	case ch == '"':
		if err := l.scanString(); err != nil {
			return nil, err
		}
		tok := l.token(STRING, leadingTrivia)
		tok.Text = tok.Text[1 : len(tok.Text)-1]
		return tok, nil
	}

	// single and double character tokens
	kind := UNKNOWN
	switch ch {
	case '(':
		kind = LEFTPAREN
	case ')':
		kind = RIGHTPAREN
	case '{':
		kind = LEFTBRACE
	case '}':
		kind = RIGHTBRACE
	case ',':
		kind = COMMA
	case '.':
		kind = DOT
	case ';':
		kind = SEMICOLON
	case '+':
		kind = PLUS
	case '-':
		kind = MINUS
	case '*':
		kind = STAR
	case '/':
		kind = SLASH
	case '%':
		kind = PERCENT
	case '=':
		kind = l.pick('=', EQ, ASSIGN)
	case '!':
		kind = l.pick('=', NOTEQ, BANG)
	case '<':
		kind = l.pick('=', LTE, LT)
	case '>':
		kind = l.pick('=', GTE, GT)
	case '&':
		kind = l.pick('&', ANDAND, UNKNOWN)
	case '|':
		kind = l.pick('|', OROR, UNKNOWN)
	}
	if kind == UNKNOWN {
		l.error("unexpected character %q", ch)
		return nil, &LexError{
			Line:    l.anchorLine,
			Column:  l.anchorColumn,
			Message: fmt.Sprintf("unexpected character %q", ch),
		}
	}
	l.advance()
	if kind == EQ || kind == NOTEQ || kind == LTE || kind == GTE || kind == ANDAND || kind == OROR {
		l.advance()
	}
	return l.token(kind, leadingTrivia), nil
}

// pick returns two if the rune after the current one is next, otherwise one.
// It does not consume anything.
func (l *Lexer) pick(next rune, two, one Kind) Kind {
	if l.peekCharN(1) == next {
		return two
	}
	return one
}

// token builds a token spanning the anchor to the current rune.
func (l *Lexer) token(kind Kind, leadingTrivia []*Token) *Token {
	l.tokenCount++
	tok := &Token{
		Position: Position{
			Line:   l.anchorLine,
			Column: l.anchorColumn,
			Start:  l.anchorPos,
		},
		End:           l.posCurrRune,
		Kind:          kind,
		Text:          string(l.input[l.anchorPos:l.posCurrRune]),
		LeadingTrivia: leadingTrivia,
	}
	if kind != SPACE {
		l.debug("%-12s %q", kind, tok.Text)
	}
	return tok
}

// scanSpaces accepts a run of spaces (including new-lines) and returns SPACE.
func (l *Lexer) scanSpaces() Kind {
	if !isspace(l.peekChar()) {
		return UNKNOWN
	}
	for isspace(l.peekChar()) {
		l.advance()
	}
	return SPACE
}

// scanComment accepts "//" through the end of the line, not including the LF.
func (l *Lexer) scanComment() Kind {
	if l.peekChar() != '/' || l.peekCharN(1) != '/' {
		return UNKNOWN
	}
	for !l.iseof() && l.peekChar() != LF {
		l.advance()
	}
	return COMMENT
}

// scanIdentifier accepts a letter or underscore followed by letters, digits, marks or underscores.
func (l *Lexer) scanIdentifier() {
	for isIdentPart(l.peekChar()) {
		l.advance()
	}
}

// scanNumber accepts digits with at most one decimal point.
// The point must be followed by a digit, otherwise it is left for the DOT token.
func (l *Lexer) scanNumber() {
	for isDigit(l.peekChar()) {
		l.advance()
	}
	if l.peekChar() == '.' && isDigit(l.peekCharN(1)) {
		l.advance()
		for isDigit(l.peekChar()) {
			l.advance()
		}
	}
}

// scanString accepts a double-quoted literal. The first closing quote ends it.
// There are no escapes. A new-line or end of input before the closing quote
// is reported at the opening quote.
func (l *Lexer) scanString() error {
	l.advance() // opening quote
	for l.peekChar() != '"' {
		if l.iseof() || l.peekChar() == LF {
			l.error("unterminated string literal")
			return &LexError{
				Line:    l.anchorLine,
				Column:  l.anchorColumn,
				Message: "unterminated string literal",
			}
		}
		l.advance()
	}
	l.advance() // closing quote
	return nil
}

// peekChar returns the rune under the cursor.
func (l *Lexer) peekChar() rune {
	return l.r
}

// peekCharN looks n runes ahead of the cursor; peekCharN(0) is peekChar.
// Looking past the end yields EOF.
func (l *Lexer) peekCharN(n int) rune {
	if n < 0 {
		panic("assert(n >= 0)")
	}
	ch, pos := l.r, l.posNextRune
	for ; n > 0; n-- {
		if pos >= l.length {
			return EOF
		}
		var w int
		ch, w = l.decodeAt(pos)
		pos += w
	}
	return ch
}

// decodeAt returns the rune that starts at input[pos] and its width in bytes.
// CR LF comes back as a single LF two bytes wide.
func (l *Lexer) decodeAt(pos int) (rune, int) {
	switch r := rune(l.input[pos]); {
	case r == CR && pos+1 < l.length && rune(l.input[pos+1]) == LF:
		return LF, 2
	case r < utf8.RuneSelf:
		return r, 1
	}
	return utf8.DecodeRune(l.input[pos:])
}

func (l *Lexer) setAnchor() {
	l.anchorPos = l.posCurrRune
	l.anchorLine = l.line
	l.anchorColumn = l.column
}

// advance steps past the current rune. Line and column always describe r,
// so they are bumped for the rune being left before the step.
func (l *Lexer) advance() {
	if l.r == LF {
		l.line++
		l.column = 1
	} else if l.r != EOF || l.column == 0 {
		l.column++
	}

	if l.posNextRune >= l.length {
		l.posCurrRune, l.posNextRune = l.length, l.length
		l.r = EOF
		return
	}
	var w int
	l.posCurrRune = l.posNextRune
	l.r, w = l.decodeAt(l.posCurrRune)
	l.posNextRune = l.posCurrRune + w
}

func (l *Lexer) iseof() bool {
	return l.r == EOF
}

func (l *Lexer) debug(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf("%s:%d:%d: %s", l.name, l.anchorLine, l.anchorColumn, fmt.Sprintf(format, args...)))
}

func (l *Lexer) error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf("%s:%d:%d: %s", l.name, l.anchorLine, l.anchorColumn, fmt.Sprintf(format, args...)))
}

// seteof parks the cursor at the end and builds the EndOfInput token once.
func (l *Lexer) seteof(leadingTrivia []*Token) {
	l.r = EOF
	l.posCurrRune = l.length
	l.posNextRune = l.length
	if l.endToken == nil {
		l.endToken = &Token{
			Position: Position{
				Line:   l.line,
				Column: l.column,
				Start:  l.length,
			},
			End:           l.length,
			Kind:          EndOfInput,
			LeadingTrivia: leadingTrivia,
		}
	}
}
