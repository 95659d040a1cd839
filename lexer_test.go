// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy_test

import (
	"errors"
	"testing"

	"github.com/mdhender/turkpy"
)

func TestTokenize_KindsAndPositions(t *testing.T) {
	toks, err := turkpy.Tokenize([]byte("yazdır(\"Merhaba Dünya!\")\nx = 3.14 // yorum\n"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []struct {
		kind   turkpy.Kind
		text   string
		line   int
		column int
	}{
		{turkpy.PRINT, "yazdır", 1, 1},
		{turkpy.LEFTPAREN, "(", 1, 7},
		{turkpy.STRING, "Merhaba Dünya!", 1, 8},
		{turkpy.RIGHTPAREN, ")", 1, 24},
		{turkpy.IDENTIFIER, "x", 2, 1},
		{turkpy.ASSIGN, "=", 2, 3},
		{turkpy.NUMBER, "3.14", 2, 5},
		{turkpy.EndOfInput, "", 3, 1},
	}
	if len(toks) != len(want) {
		t.Fatalf("len(toks) = %d, want %d", len(toks), len(want))
	}
	for i, w := range want {
		tok := toks[i]
		if tok.Kind != w.kind {
			t.Errorf("%d: Kind = %s, want %s", i, tok.Kind, w.kind)
		}
		if tok.Text != w.text {
			t.Errorf("%d: Text = %q, want %q", i, tok.Text, w.text)
		}
		if tok.Line != w.line || tok.Column != w.column {
			t.Errorf("%d: position = %d:%d, want %d:%d", i, tok.Line, tok.Column, w.line, w.column)
		}
	}
}

func TestTokenize_Keywords(t *testing.T) {
	for word, kind := range turkpy.Keywords {
		toks, err := turkpy.Tokenize([]byte(word))
		if err != nil {
			t.Fatalf("%s: Tokenize: %v", word, err)
		}
		if toks[0].Kind != kind {
			t.Errorf("%s: Kind = %s, want %s", word, toks[0].Kind, kind)
		}
		if toks[0].Kind.Class() != turkpy.ClassKeyword {
			t.Errorf("%s: Class = %s, want %s", word, toks[0].Kind.Class(), turkpy.ClassKeyword)
		}
	}
}

func TestTokenize_Operators(t *testing.T) {
	input := "+ - * / % = == != < <= > >= ! && || ( ) { } , . ;"
	want := []turkpy.Kind{
		turkpy.PLUS, turkpy.MINUS, turkpy.STAR, turkpy.SLASH, turkpy.PERCENT,
		turkpy.ASSIGN, turkpy.EQ, turkpy.NOTEQ, turkpy.LT, turkpy.LTE, turkpy.GT, turkpy.GTE,
		turkpy.BANG, turkpy.ANDAND, turkpy.OROR,
		turkpy.LEFTPAREN, turkpy.RIGHTPAREN, turkpy.LEFTBRACE, turkpy.RIGHTBRACE,
		turkpy.COMMA, turkpy.DOT, turkpy.SEMICOLON,
		turkpy.EndOfInput,
	}
	toks, err := turkpy.Tokenize([]byte(input))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != len(want) {
		t.Fatalf("len(toks) = %d, want %d", len(toks), len(want))
	}
	for i, kind := range want {
		if toks[i].Kind != kind {
			t.Errorf("%d: Kind = %s, want %s", i, toks[i].Kind, kind)
		}
	}
}

func TestTokenize_UnicodeIdentifiers(t *testing.T) {
	toks, err := turkpy.Tokenize([]byte("şehir_adı ığüşöç2 _x"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	for i, want := range []string{"şehir_adı", "ığüşöç2", "_x"} {
		if toks[i].Kind != turkpy.IDENTIFIER {
			t.Errorf("%d: Kind = %s, want identifier", i, toks[i].Kind)
		}
		if toks[i].Text != want {
			t.Errorf("%d: Text = %q, want %q", i, toks[i].Text, want)
		}
	}
	// columns count runes, not bytes
	if got, want := toks[1].Column, 11; got != want {
		t.Errorf("Column = %d, want %d", got, want)
	}
}

func TestTokenize_NumberFollowedByDot(t *testing.T) {
	toks, err := turkpy.Tokenize([]byte("5.x"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != turkpy.NUMBER || toks[0].Text != "5" {
		t.Errorf("toks[0] = %s %q, want number \"5\"", toks[0].Kind, toks[0].Text)
	}
	if toks[1].Kind != turkpy.DOT {
		t.Errorf("toks[1] = %s, want \".\"", toks[1].Kind)
	}
}

func TestTokenize_CommentsAreTrivia(t *testing.T) {
	toks, err := turkpy.Tokenize([]byte("// baş\r\nx // son"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("len(toks) = %d, want 2", len(toks))
	}
	x := toks[0]
	if x.Line != 2 || x.Column != 1 {
		t.Errorf("x position = %d:%d, want 2:1", x.Line, x.Column)
	}
	if len(x.LeadingTrivia) != 2 || x.LeadingTrivia[0].Kind != turkpy.COMMENT {
		t.Fatalf("x.LeadingTrivia = %d tokens, want comment then space", len(x.LeadingTrivia))
	}
	if got, want := x.LeadingTrivia[0].Text, "// baş"; got != want {
		t.Errorf("comment = %q, want %q", got, want)
	}
	eof := toks[1]
	if len(eof.LeadingTrivia) != 2 || eof.LeadingTrivia[1].Kind != turkpy.COMMENT {
		t.Errorf("eof.LeadingTrivia = %d tokens, want space then comment", len(eof.LeadingTrivia))
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		column  int
		message string
	}{
		{"unknown character", "x = 5 @", 1, 7, "unexpected character '@'"},
		{"single ampersand", "a & b", 1, 3, "unexpected character '&'"},
		{"unterminated string", "yazdır(\"abc", 1, 8, "unterminated string literal"},
		{"string across lines", "x = \"ab\ncd\"", 1, 5, "unterminated string literal"},
		{"compatibility ligature", "x = \ufb01le", 1, 5, "identifier \"\ufb01le\" has a compatibility character"},
		{"fullwidth letter", "\uff41 = 1", 1, 1, "identifier \"\uff41\" has a compatibility character"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := turkpy.Tokenize([]byte(tc.input))
			var lexErr *turkpy.LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("err = %v, want *LexError", err)
			}
			if lexErr.Line != tc.line || lexErr.Column != tc.column {
				t.Errorf("position = %d:%d, want %d:%d", lexErr.Line, lexErr.Column, tc.line, tc.column)
			}
			if lexErr.Message != tc.message {
				t.Errorf("Message = %q, want %q", lexErr.Message, tc.message)
			}
		})
	}
}

func TestLexer_IdentifierNormalization(t *testing.T) {
	// g + combining breve is the same name as the precomposed letter
	toks, err := turkpy.Tokenize([]byte("deg\u0306er eg\u0306er"))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != turkpy.IDENTIFIER || toks[0].Text != "değer" {
		t.Errorf("toks[0] = %s %q, want identifier %q", toks[0].Kind, toks[0].Text, "değer")
	}
	if got := string(toks[0].Lexeme([]byte("deg\u0306er"))); got != "deg\u0306er" {
		t.Errorf("Lexeme = %q, want the source bytes", got)
	}
	if toks[1].Kind != turkpy.IF {
		t.Errorf("toks[1] = %s, want %s", toks[1].Kind, turkpy.IF)
	}
}

func TestLexer_ScanAfterEnd(t *testing.T) {
	l := turkpy.NewLexer("test", []byte("x"), nil)
	first, _ := l.Scan()
	eof1, _ := l.Scan()
	eof2, _ := l.Scan()
	if first.Kind != turkpy.IDENTIFIER {
		t.Fatalf("first = %s, want identifier", first.Kind)
	}
	if eof1 != eof2 || eof1.Kind != turkpy.EndOfInput {
		t.Errorf("Scan after end should return the same end of input token")
	}
}
