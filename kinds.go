// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

// Kind implements enums for tokens
type Kind int

const (
	UNKNOWN Kind = iota

	// punctuation
	LEFTPAREN
	RIGHTPAREN
	LEFTBRACE
	RIGHTBRACE
	COMMA
	DOT
	SEMICOLON

	// operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN
	EQ
	NOTEQ
	LT
	LTE
	GT
	GTE
	BANG
	ANDAND
	OROR

	// keywords
	IF       // eğer
	ELSE     // değilse
	WHILE    // döngü
	FUNCTION // fonksiyon
	RETURN   // dön
	CLASS    // sınıf
	PRINT    // yazdır
	TRUE     // doğru
	FALSE    // yanlış
	NULL     // boş
	AND      // ve
	OR       // veya
	NOT      // değil
	THIS     // bu
	BREAK    // kır
	CONTINUE // devam

	IDENTIFIER
	NUMBER
	STRING

	SPACE   // run of whitespace, trivia only
	COMMENT // "//" to end of line, trivia only

	EndOfInput // end of input
)

// Keywords maps the reserved words of the source language to their token kinds.
var Keywords = map[string]Kind{
	"eğer":      IF,
	"değilse":   ELSE,
	"döngü":     WHILE,
	"fonksiyon": FUNCTION,
	"dön":       RETURN,
	"sınıf":     CLASS,
	"yazdır":    PRINT,
	"doğru":     TRUE,
	"yanlış":    FALSE,
	"boş":       NULL,
	"ve":        AND,
	"veya":      OR,
	"değil":     NOT,
	"bu":        THIS,
	"kır":       BREAK,
	"devam":     CONTINUE,
}

var kindNames = map[Kind]string{
	UNKNOWN:    "UNKNOWN",
	LEFTPAREN:  "(",
	RIGHTPAREN: ")",
	LEFTBRACE:  "{",
	RIGHTBRACE: "}",
	COMMA:      ",",
	DOT:        ".",
	SEMICOLON:  ";",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	PERCENT:    "%",
	ASSIGN:     "=",
	EQ:         "==",
	NOTEQ:      "!=",
	LT:         "<",
	LTE:        "<=",
	GT:         ">",
	GTE:        ">=",
	BANG:       "!",
	ANDAND:     "&&",
	OROR:       "||",
	IF:         "eğer",
	ELSE:       "değilse",
	WHILE:      "döngü",
	FUNCTION:   "fonksiyon",
	RETURN:     "dön",
	CLASS:      "sınıf",
	PRINT:      "yazdır",
	TRUE:       "doğru",
	FALSE:      "yanlış",
	NULL:       "boş",
	AND:        "ve",
	OR:         "veya",
	NOT:        "değil",
	THIS:       "bu",
	BREAK:      "kır",
	CONTINUE:   "devam",
	IDENTIFIER: "identifier",
	NUMBER:     "number",
	STRING:     "string",
	SPACE:      "space",
	COMMENT:    "comment",
	EndOfInput: "end of input",
}

// String returns the spelling of fixed tokens and a descriptive name for the rest.
// Parse errors use it to name expected and found tokens.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Class is the coarse token category used by tooling.
type Class string

const (
	ClassKeyword     Class = "keyword"
	ClassIdentifier  Class = "identifier"
	ClassString      Class = "string-literal"
	ClassNumber      Class = "number-literal"
	ClassOperator    Class = "operator"
	ClassPunctuation Class = "punctuation"
	ClassComment     Class = "comment"
	ClassEndOfInput  Class = "end-of-input"
	ClassUnknown     Class = "unknown"
)

// Class reports the category of the kind.
func (k Kind) Class() Class {
	switch {
	case k >= LEFTPAREN && k <= SEMICOLON:
		return ClassPunctuation
	case k >= PLUS && k <= OROR:
		return ClassOperator
	case k >= IF && k <= CONTINUE:
		return ClassKeyword
	}
	switch k {
	case IDENTIFIER:
		return ClassIdentifier
	case NUMBER:
		return ClassNumber
	case STRING:
		return ClassString
	case COMMENT:
		return ClassComment
	case EndOfInput:
		return ClassEndOfInput
	}
	return ClassUnknown
}

// IsKeyword is a helper for Class() == ClassKeyword.
func (k Kind) IsKeyword() bool {
	return k.Class() == ClassKeyword
}
