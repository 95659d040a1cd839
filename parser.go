// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"bytes"
	"log/slog"
)

/*
Invariants:
 * Initialization
   * `newParser(tokens, logger)` stores the tokens and primes `p.currToken`
     with the first one before the top-level parse begins.
   * After initialization, `p.currToken` is never `nil` (once EOF is reached, it is always EOF).
   * If the caller's slice does not end with EndOfInput, a canonical EOF token is
     synthesized just past the last token.

 * Token cursor semantics
   * `currToken` is the lookahead token, the one `peek()` returns and `advance()` consumes next.
   * `peek()` never changes parser state.
   * `advance()` returns the current token and moves the lookahead forward.
     Once EOF has been produced, `advance()` keeps returning EOF forever.
   * `prevToken` is the last token consumed; nodes end their span on it.

 * Trivia semantics
   * Spaces and comments are never returned by the cursor; the lexer has already
     folded them into LeadingTrivia.

 * Errors
   * The grammar is LL(1): at each decision point the lookahead alone selects the production.
   * The first mismatch records a *ParseError and unwinds with a bailout panic that
     Parse recovers. There is no recovery and no error batching.
*/

type parser struct {
	logger    *slog.Logger
	toks      []*Token
	pos       int    // index of currToken in toks
	currToken *Token // current lookahead
	prevToken *Token // last token consumed
	eofToken  *Token // canonical EOF token

	funcDepth int  // > 0 inside a function body
	loopDepth int  // > 0 inside a loop body of the current function
	inMethod  bool // "bu" is bound; nested functions inherit it

	err *ParseError
}

// bailout is the panic value used to unwind after the first error.
type bailout struct{}

// Parse builds a Program from the token sequence.
func Parse(tokens []*Token) (*Program, error) {
	return ParseWithLogger(tokens, nil)
}

// ParseWithLogger is Parse with an optional debug logger.
func ParseWithLogger(tokens []*Token, logger *slog.Logger) (prog *Program, err error) {
	p := newParser(tokens, logger)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.err
		}
	}()
	return p.parseProgram(), nil
}

// ParseSource tokenizes and parses source in one step.
// A leading byte order mark is skipped.
func ParseSource(source []byte) (*Program, error) {
	toks, err := Tokenize(bytes.TrimPrefix(source, []byte("\uFEFF")))
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

// newParser constructor returns an initialized parser
func newParser(tokens []*Token, logger *slog.Logger) *parser {
	p := &parser{
		logger: logger,
		toks:   tokens,
	}
	if n := len(tokens); n > 0 && tokens[n-1].Kind == EndOfInput {
		p.eofToken = tokens[n-1]
	} else {
		eof := &Token{Position: Position{Line: 1, Column: 1}, Kind: EndOfInput}
		if n > 0 {
			last := tokens[n-1]
			eof.Position = Position{Line: last.Line, Column: last.Column + len([]rune(last.Text)), Start: last.End}
			eof.End = last.End
		}
		p.eofToken = eof
	}
	// Prime the cursor with the first token.
	p.currToken = p.tokenAt(0)
	return p
}

func (p *parser) tokenAt(i int) *Token {
	if i < len(p.toks) && p.toks[i].Kind != EndOfInput {
		return p.toks[i]
	}
	return p.eofToken
}

// peek returns the current lookahead token without consuming it.
func (p *parser) peek() *Token {
	return p.currToken
}

// advance consumes and returns the current token, then updates the lookahead.
// EOF is returned repeatedly but the cursor doesn't move past it.
func (p *parser) advance() *Token {
	if p.currToken == nil {
		panic("assert(parser.currToken != nil)")
	}
	tok := p.currToken
	if tok.Kind == EndOfInput {
		return tok
	}
	p.prevToken = tok
	p.pos++
	p.currToken = p.tokenAt(p.pos)
	return tok
}

// match reports whether the current lookahead token matches the given kind.
func (p *parser) match(kind Kind) bool {
	return p.peek().Is(kind)
}

// matchOneOf reports whether the current lookahead token's Kind matches
// any of the provided kinds.
func (p *parser) matchOneOf(kinds ...Kind) bool {
	return p.peek().IsOneOf(kinds...)
}

// consume advances over the current token if its Kind equals kind.
// It returns true if a token was consumed, false otherwise.
func (p *parser) consume(kind Kind) bool {
	if p.match(kind) {
		p.advance()
		return true
	}
	return false
}

// accept consumes and returns the current token if its Kind equals kind.
// It returns nil if the current token does not match.
func (p *parser) accept(kind Kind) *Token {
	if p.match(kind) {
		return p.advance()
	}
	return nil
}

// acceptOneOf consumes and returns the current token if its Kind matches
// any of the provided kinds. It returns nil if there is no match.
func (p *parser) acceptOneOf(kinds ...Kind) *Token {
	if p.matchOneOf(kinds...) {
		return p.advance()
	}
	return nil
}

// expect consumes and returns the current token if its Kind equals kind.
// Otherwise it reports the mismatch and bails out.
func (p *parser) expect(kind Kind) *Token {
	tok := p.accept(kind)
	if tok == nil {
		p.errorExpected(describeKind(kind))
	}
	return tok
}

// expectIdentifier is expect(IDENTIFIER) that also rejects names the
// generated Python could not use or that would shadow names it relies on.
func (p *parser) expectIdentifier() *Token {
	tok := p.expectMemberName()
	switch {
	case tok.Text == "print":
		p.errorAt(tok, []string{"identifier other than \"print\""}, tok.Describe())
	case tok.Text == "self" && p.inMethod:
		p.errorAt(tok, []string{"identifier other than \"self\" inside a method"}, tok.Describe())
	}
	return tok
}

// expectMemberName accepts any identifier that is not a Python keyword.
// Attribute names cannot shadow builtins or the receiver.
func (p *parser) expectMemberName() *Token {
	tok := p.expect(IDENTIFIER)
	if pythonReserved[tok.Text] {
		p.errorAt(tok, []string{"identifier that is not a Python reserved word"}, tok.Describe())
	}
	return tok
}

// isAtEnd reports whether the parser has reached EOF.
func (p *parser) isAtEnd() bool {
	return p.currToken != nil && p.currToken.Kind == EndOfInput
}

// errorExpected reports that the lookahead is not one of the expected items.
func (p *parser) errorExpected(expected ...string) {
	tok := p.peek()
	p.errorAt(tok, expected, tok.Describe())
}

func (p *parser) errorAt(tok *Token, expected []string, found string) {
	p.err = &ParseError{
		Line:     tok.Line,
		Column:   tok.Column,
		Expected: expected,
		Found:    found,
	}
	if p.logger != nil {
		p.logger.Debug("parse error", "line", tok.Line, "column", tok.Column, "error", p.err.Message())
	}
	panic(bailout{})
}

// describeKind names a token kind the way diagnostics show it.
func describeKind(k Kind) string {
	switch k {
	case IDENTIFIER, NUMBER, STRING, EndOfInput:
		return k.String()
	}
	return quote(k.String())
}

func (p *parser) span(start *Token) Span {
	end := p.prevToken
	if end == nil || end.Start < start.Start {
		end = start
	}
	return spanFromTokens(start, end)
}

// program ::= { statement } EOF
func (p *parser) parseProgram() *Program {
	start := p.peek()
	body := p.parseStatements(EndOfInput)
	prog := &Program{Body: body}
	if len(body) == 0 {
		prog.Loc = spanFromToken(start)
	} else {
		prog.Loc = Span{
			Start:  body[0].Span().Start,
			End:    body[len(body)-1].Span().End,
			Line:   body[0].Span().Line,
			Column: body[0].Span().Column,
		}
	}
	return prog
}

// parseStatements parses statements until the terminator kind is the lookahead.
// The terminator is not consumed. The result is never nil.
func (p *parser) parseStatements(terminator Kind) []Stmt {
	stmts := []Stmt{}
	for {
		for p.consume(SEMICOLON) {
		}
		if p.match(terminator) {
			return stmts
		}
		if p.isAtEnd() {
			// only reachable when the terminator is a closing brace
			p.errorExpected(describeKind(terminator))
		}
		stmts = append(stmts, p.parseStatement())
	}
}

// block ::= "{" { statement } "}"
func (p *parser) parseBlock() []Stmt {
	p.expect(LEFTBRACE)
	body := p.parseStatements(RIGHTBRACE)
	p.expect(RIGHTBRACE)
	return body
}

func (p *parser) parseStatement() Stmt {
	if p.logger != nil {
		p.logger.Debug("statement", "line", p.peek().Line, "token", p.peek().Kind.String())
	}
	switch p.peek().Kind {
	case FUNCTION:
		return p.parseFunctionDef(false)
	case CLASS:
		return p.parseClassDef()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case RETURN:
		return p.parseReturn()
	case PRINT:
		return p.parsePrint()
	case BREAK, CONTINUE:
		return p.parseLoopControl()
	}
	return p.parseSimpleStatement()
}

// funcDef ::= "fonksiyon" IDENT "(" [ IDENT { "," IDENT } ] ")" block
func (p *parser) parseFunctionDef(isMethod bool) *FunctionDef {
	start := p.expect(FUNCTION)
	name := p.expectIdentifier()

	p.expect(LEFTPAREN)
	params := []string{}
	seen := map[string]bool{}
	if isMethod {
		// the receiver is implicit and may not be declared again
		seen["self"] = true
	}
	if !p.match(RIGHTPAREN) {
		for {
			param := p.expectIdentifier()
			if seen[param.Text] {
				p.errorAt(param, []string{"unique parameter name"}, param.Describe())
			}
			seen[param.Text] = true
			params = append(params, param.Text)
			if !p.consume(COMMA) {
				break
			}
		}
	}
	if !p.match(RIGHTPAREN) {
		p.errorExpected(quote(","), quote(")"))
	}
	p.advance()

	savedLoop, savedMethod := p.loopDepth, p.inMethod
	p.funcDepth++
	p.loopDepth = 0
	p.inMethod = isMethod || p.inMethod
	body := p.parseBlock()
	p.funcDepth--
	p.loopDepth, p.inMethod = savedLoop, savedMethod

	return &FunctionDef{
		BaseNode: BaseNode{Loc: p.span(start)},
		Name:     name.Text,
		Params:   params,
		Body:     body,
	}
}

// classDef ::= "sınıf" IDENT "{" { funcDef } "}"
func (p *parser) parseClassDef() *ClassDef {
	start := p.expect(CLASS)
	name := p.expectIdentifier()
	p.expect(LEFTBRACE)
	methods := []*FunctionDef{}
	for {
		for p.consume(SEMICOLON) {
		}
		if p.match(RIGHTBRACE) {
			break
		}
		if !p.match(FUNCTION) {
			p.errorExpected(describeKind(FUNCTION), describeKind(RIGHTBRACE))
		}
		methods = append(methods, p.parseFunctionDef(true))
	}
	p.expect(RIGHTBRACE)
	return &ClassDef{
		BaseNode: BaseNode{Loc: p.span(start)},
		Name:     name.Text,
		Methods:  methods,
	}
}

// ifStmt ::= "eğer" expr block [ "değilse" ( ifStmt | block ) ]
func (p *parser) parseIf() *If {
	start := p.expect(IF)
	cond := p.parseExpr()
	then := p.parseBlock()
	var els []Stmt
	if p.consume(ELSE) {
		switch {
		case p.match(IF):
			els = []Stmt{p.parseIf()}
		case p.match(LEFTBRACE):
			els = p.parseBlock()
		default:
			p.errorExpected(describeKind(IF), describeKind(LEFTBRACE))
		}
	}
	return &If{
		BaseNode: BaseNode{Loc: p.span(start)},
		Cond:     cond,
		Then:     then,
		Else:     els,
	}
}

// whileStmt ::= "döngü" expr block
func (p *parser) parseWhile() *While {
	start := p.expect(WHILE)
	cond := p.parseExpr()
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return &While{
		BaseNode: BaseNode{Loc: p.span(start)},
		Cond:     cond,
		Body:     body,
	}
}

// returnEnders are the lookahead kinds that make a return bare.
var returnEnders = []Kind{
	RIGHTBRACE, SEMICOLON, EndOfInput,
	FUNCTION, CLASS, IF, WHILE, RETURN, PRINT, BREAK, CONTINUE,
}

// returnStmt ::= "dön" [ expr ]
func (p *parser) parseReturn() *Return {
	start := p.peek()
	if p.funcDepth == 0 {
		p.errorAt(start, []string{"statement"}, start.Describe()+" outside of a function")
	}
	p.advance()
	n := &Return{}
	if !p.matchOneOf(returnEnders...) {
		n.Value = p.parseExpr()
	}
	n.Loc = p.span(start)
	return n
}

// printStmt ::= "yazdır" "(" expr ")"
func (p *parser) parsePrint() *Print {
	start := p.expect(PRINT)
	p.expect(LEFTPAREN)
	value := p.parseExpr()
	p.expect(RIGHTPAREN)
	return &Print{
		BaseNode: BaseNode{Loc: p.span(start)},
		Value:    value,
	}
}

func (p *parser) parseLoopControl() Stmt {
	tok := p.peek()
	if p.loopDepth == 0 {
		p.errorAt(tok, []string{"statement"}, tok.Describe()+" outside of a loop")
	}
	p.advance()
	if tok.Kind == BREAK {
		return &Break{BaseNode{Loc: spanFromToken(tok)}}
	}
	return &Continue{BaseNode{Loc: spanFromToken(tok)}}
}

// simpleStmt ::= expr [ "=" expr ]
func (p *parser) parseSimpleStatement() Stmt {
	start := p.peek()
	x := p.parseExpr()
	if !p.match(ASSIGN) {
		return &ExprStmt{BaseNode: BaseNode{Loc: p.span(start)}, X: x}
	}
	switch x.(type) {
	case *Identifier, *Member:
	default:
		p.errorAt(start, []string{"identifier", "member access"}, start.Describe())
	}
	p.advance()
	value := p.parseExpr()
	return &Assignment{
		BaseNode: BaseNode{Loc: p.span(start)},
		Target:   x,
		Value:    value,
	}
}

func (p *parser) parseExpr() Expr {
	return p.parseOr()
}

// binary parses a left-associative level: operand { op operand }.
func (p *parser) binary(operand func() Expr, ops ...Kind) Expr {
	start := p.peek()
	left := operand()
	for {
		op := p.acceptOneOf(ops...)
		if op == nil {
			return left
		}
		right := operand()
		left = &BinaryExpr{
			BaseNode: BaseNode{Loc: p.span(start)},
			Op:       op.Kind,
			Left:     left,
			Right:    right,
		}
	}
}

// or ::= and { ("veya"|"||") and }
func (p *parser) parseOr() Expr {
	return p.binary(p.parseAnd, OR, OROR)
}

// and ::= not { ("ve"|"&&") not }
func (p *parser) parseAnd() Expr {
	return p.binary(p.parseNot, AND, ANDAND)
}

// not ::= ("değil"|"!") not | comparison
func (p *parser) parseNot() Expr {
	if op := p.acceptOneOf(NOT, BANG); op != nil {
		operand := p.parseNot()
		return &UnaryExpr{BaseNode: BaseNode{Loc: p.span(op)}, Op: op.Kind, Operand: operand}
	}
	return p.parseComparison()
}

// comparison ::= additive { ("=="|"!="|"<"|"<="|">"|">=") additive }
func (p *parser) parseComparison() Expr {
	return p.binary(p.parseAdditive, EQ, NOTEQ, LT, LTE, GT, GTE)
}

// additive ::= multiplicative { ("+"|"-") multiplicative }
func (p *parser) parseAdditive() Expr {
	return p.binary(p.parseMultiplicative, PLUS, MINUS)
}

// multiplicative ::= unary { ("*"|"/"|"%") unary }
func (p *parser) parseMultiplicative() Expr {
	return p.binary(p.parseUnary, STAR, SLASH, PERCENT)
}

// unary ::= "-" unary | postfix
func (p *parser) parseUnary() Expr {
	if op := p.accept(MINUS); op != nil {
		operand := p.parseUnary()
		return &UnaryExpr{BaseNode: BaseNode{Loc: p.span(op)}, Op: MINUS, Operand: operand}
	}
	return p.parsePostfix()
}

// postfix ::= primary { "(" args ")" | "." IDENT }
func (p *parser) parsePostfix() Expr {
	start := p.peek()
	x := p.parsePrimary()
	for {
		switch {
		case p.match(LEFTPAREN):
			switch x.(type) {
			case *Identifier, *Member:
			default:
				p.errorAt(p.peek(), nil, p.peek().Describe())
			}
			p.advance()
			args := []Expr{}
			if !p.match(RIGHTPAREN) {
				for {
					args = append(args, p.parseExpr())
					if !p.consume(COMMA) {
						break
					}
				}
			}
			if !p.match(RIGHTPAREN) {
				p.errorExpected(quote(","), quote(")"))
			}
			p.advance()
			x = &Call{BaseNode: BaseNode{Loc: p.span(start)}, Callee: x, Args: args}
		case p.match(DOT):
			p.advance()
			name := p.expectMemberName()
			x = &Member{BaseNode: BaseNode{Loc: p.span(start)}, Object: x, Name: name.Text}
		default:
			return x
		}
	}
}

// primary ::= NUMBER | STRING | "doğru" | "yanlış" | "boş" | "bu" | IDENT | "(" expr ")"
func (p *parser) parsePrimary() Expr {
	tok := p.peek()
	switch tok.Kind {
	case NUMBER:
		p.advance()
		return &Literal{BaseNode: BaseNode{Loc: spanFromToken(tok)}, LitKind: LiteralNumber, Value: tok.Text}
	case STRING:
		p.advance()
		return &Literal{BaseNode: BaseNode{Loc: spanFromToken(tok)}, LitKind: LiteralString, Value: tok.Text}
	case TRUE:
		p.advance()
		return &Literal{BaseNode: BaseNode{Loc: spanFromToken(tok)}, LitKind: LiteralBoolean, Value: "true"}
	case FALSE:
		p.advance()
		return &Literal{BaseNode: BaseNode{Loc: spanFromToken(tok)}, LitKind: LiteralBoolean, Value: "false"}
	case NULL:
		p.advance()
		return &Literal{BaseNode: BaseNode{Loc: spanFromToken(tok)}, LitKind: LiteralNull}
	case THIS:
		if !p.inMethod {
			p.errorAt(tok, []string{"expression"}, tok.Describe()+" outside of a method")
		}
		p.advance()
		return &Self{BaseNode{Loc: spanFromToken(tok)}}
	case IDENTIFIER:
		p.expectIdentifier()
		return &Identifier{BaseNode: BaseNode{Loc: spanFromToken(tok)}, Name: tok.Text}
	case LEFTPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(RIGHTPAREN)
		return x
	}
	p.errorExpected("expression")
	return nil
}

// pythonReserved lists the hard keywords of the target language.
// Soft keywords (match, case, type, _) are valid identifiers there.
var pythonReserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}
