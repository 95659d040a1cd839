// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultIndent is the indentation unit of the generated Python.
	DefaultIndent = 4

	// ConstructorName is the method name that becomes the Python initializer.
	ConstructorName = "kurucu"
)

type generator struct {
	sb          strings.Builder
	indent      string
	depth       int
	constructor string
	scope       *scope
}

type GenerateOption func(g *generator) error

// WithIndent sets the number of spaces per nesting level.
func WithIndent(spaces int) GenerateOption {
	return func(g *generator) error {
		if spaces < 1 {
			return errors.Newf("indent: want at least 1 space, got %d", spaces)
		}
		g.indent = strings.Repeat(" ", spaces)
		return nil
	}
}

// WithConstructorName sets the method name mapped to __init__.
// An empty name disables the mapping and every method keeps its name.
func WithConstructorName(name string) GenerateOption {
	return func(g *generator) error {
		g.constructor = name
		return nil
	}
}

// Generate returns the Python text for prog.
// Every statement line ends with a new-line; an empty program yields "".
// A constructor that returns a value fails with a *ParseError.
//
// A function that assigns a name bound by the module or by an enclosing
// function rebinds that name, so its body opens with a global or
// nonlocal declaration.
func Generate(prog *Program, opts ...GenerateOption) (string, error) {
	g := &generator{
		indent:      strings.Repeat(" ", DefaultIndent),
		constructor: ConstructorName,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return "", err
		}
	}
	if prog == nil {
		return "", errors.AssertionFailedf("generate: nil program")
	}
	g.scope = newScope(nil, nil, prog.Body)
	for _, stmt := range prog.Body {
		if err := g.stmt(stmt, false); err != nil {
			return "", err
		}
	}
	return g.sb.String(), nil
}

// MethodName returns the Python name of a method declared in a class.
func (g *generator) methodName(name string) string {
	if g.constructor != "" && name == g.constructor {
		return "__init__"
	}
	return name
}

func (g *generator) line(format string, args ...any) {
	for i := 0; i < g.depth; i++ {
		g.sb.WriteString(g.indent)
	}
	fmt.Fprintf(&g.sb, format, args...)
	g.sb.WriteByte('\n')
}

// block emits a nested statement list, or "pass" when it is empty.
func (g *generator) block(stmts []Stmt) error {
	g.depth++
	defer func() { g.depth-- }()
	if len(stmts) == 0 {
		g.line("pass")
		return nil
	}
	for _, stmt := range stmts {
		if err := g.stmt(stmt, false); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(stmt Stmt, isMethod bool) error {
	switch n := stmt.(type) {
	case *FunctionDef:
		name, params := n.Name, n.Params
		if isMethod {
			name = g.methodName(name)
			params = append([]string{"self"}, params...)
		}
		if isMethod && name == "__init__" {
			if ret := valuedReturn(n.Body); ret != nil {
				return &ParseError{
					Line:     ret.Loc.Line,
					Column:   ret.Loc.Column,
					Expected: []string{"bare " + describeKind(RETURN) + " in constructor " + quote(n.Name)},
					Found:    "a return value",
				}
			}
		}
		g.line("def %s(%s):", name, strings.Join(params, ", "))
		outer := g.scope
		g.scope = newScope(outer, n.Params, n.Body)
		defer func() { g.scope = outer }()
		globals, nonlocals := g.scope.declarations()
		g.depth++
		if len(globals) != 0 {
			g.line("global %s", strings.Join(globals, ", "))
		}
		if len(nonlocals) != 0 {
			g.line("nonlocal %s", strings.Join(nonlocals, ", "))
		}
		g.depth--
		return g.block(n.Body)
	case *ClassDef:
		g.line("class %s:", n.Name)
		g.depth++
		defer func() { g.depth-- }()
		if len(n.Methods) == 0 {
			g.line("pass")
			return nil
		}
		for _, m := range n.Methods {
			if err := g.stmt(m, true); err != nil {
				return err
			}
		}
		return nil
	case *If:
		return g.ifStmt(n, "if")
	case *While:
		cond, err := g.expr(n.Cond)
		if err != nil {
			return err
		}
		g.line("while %s:", cond)
		return g.block(n.Body)
	case *Return:
		if n.Value == nil {
			g.line("return")
			return nil
		}
		value, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.line("return %s", value)
		return nil
	case *Print:
		value, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.line("print(%s)", value)
		return nil
	case *ExprStmt:
		x, err := g.expr(n.X)
		if err != nil {
			return err
		}
		g.line("%s", x)
		return nil
	case *Assignment:
		target, err := g.expr(n.Target)
		if err != nil {
			return err
		}
		value, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.line("%s = %s", target, value)
		return nil
	case *Break:
		g.line("break")
		return nil
	case *Continue:
		g.line("continue")
		return nil
	}
	return errors.AssertionFailedf("generate: unexpected statement %T", stmt)
}

// valuedReturn finds a return with a value that belongs to the function
// whose body is stmts. Nested definitions are skipped.
func valuedReturn(stmts []Stmt) *Return {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *Return:
			if n.Value != nil {
				return n
			}
		case *If:
			if ret := valuedReturn(n.Then); ret != nil {
				return ret
			}
			if ret := valuedReturn(n.Else); ret != nil {
				return ret
			}
		case *While:
			if ret := valuedReturn(n.Body); ret != nil {
				return ret
			}
		}
	}
	return nil
}

// ifStmt emits an if statement, folding else-if chains into elif clauses.
func (g *generator) ifStmt(n *If, keyword string) error {
	cond, err := g.expr(n.Cond)
	if err != nil {
		return err
	}
	g.line("%s %s:", keyword, cond)
	if err := g.block(n.Then); err != nil {
		return err
	}
	if elif, ok := n.IsElseIf(); ok {
		return g.ifStmt(elif, "elif")
	}
	if n.Else != nil {
		g.line("else:")
		return g.block(n.Else)
	}
	return nil
}

// Python binding strength, loosest first.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precUnary
	precPostfix
	precAtom
)

var binaryOps = map[Kind]struct {
	text string
	prec int
}{
	OR:      {"or", precOr},
	OROR:    {"or", precOr},
	AND:     {"and", precAnd},
	ANDAND:  {"and", precAnd},
	EQ:      {"==", precCompare},
	NOTEQ:   {"!=", precCompare},
	LT:      {"<", precCompare},
	LTE:     {"<=", precCompare},
	GT:      {">", precCompare},
	GTE:     {">=", precCompare},
	PLUS:    {"+", precAdd},
	MINUS:   {"-", precAdd},
	STAR:    {"*", precMul},
	SLASH:   {"/", precMul},
	PERCENT: {"%", precMul},
}

func (g *generator) expr(x Expr) (string, error) {
	text, _, err := g.exprPrec(x)
	return text, err
}

// exprPrec returns the text of x and the binding strength of its outermost operator.
func (g *generator) exprPrec(x Expr) (string, int, error) {
	switch n := x.(type) {
	case *BinaryExpr:
		op, ok := binaryOps[n.Op]
		if !ok {
			return "", 0, errors.AssertionFailedf("generate: unexpected binary operator %s", n.Op)
		}
		left, lp, err := g.exprPrec(n.Left)
		if err != nil {
			return "", 0, err
		}
		right, rp, err := g.exprPrec(n.Right)
		if err != nil {
			return "", 0, err
		}
		// comparisons chain in Python, so a nested comparison always needs parentheses
		if lp < op.prec || (op.prec == precCompare && lp == precCompare) {
			left = "(" + left + ")"
		}
		if rp <= op.prec {
			right = "(" + right + ")"
		}
		return left + " " + op.text + " " + right, op.prec, nil
	case *UnaryExpr:
		operand, p, err := g.exprPrec(n.Operand)
		if err != nil {
			return "", 0, err
		}
		switch n.Op {
		case NOT, BANG:
			if p < precNot {
				operand = "(" + operand + ")"
			}
			return "not " + operand, precNot, nil
		case MINUS:
			if p < precUnary {
				operand = "(" + operand + ")"
			}
			return "-" + operand, precUnary, nil
		}
		return "", 0, errors.AssertionFailedf("generate: unexpected unary operator %s", n.Op)
	case *Call:
		callee, p, err := g.exprPrec(n.Callee)
		if err != nil {
			return "", 0, err
		}
		if p < precPostfix {
			callee = "(" + callee + ")"
		}
		args := make([]string, 0, len(n.Args))
		for _, arg := range n.Args {
			a, err := g.expr(arg)
			if err != nil {
				return "", 0, err
			}
			args = append(args, a)
		}
		return callee + "(" + strings.Join(args, ", ") + ")", precPostfix, nil
	case *Member:
		object, p, err := g.exprPrec(n.Object)
		if err != nil {
			return "", 0, err
		}
		if lit, ok := n.Object.(*Literal); p < precPostfix || (ok && lit.LitKind == LiteralNumber) {
			// "5.x" would scan as a float in Python
			object = "(" + object + ")"
		}
		return object + "." + n.Name, precPostfix, nil
	case *Identifier:
		return n.Name, precAtom, nil
	case *Self:
		return "self", precAtom, nil
	case *Literal:
		switch n.LitKind {
		case LiteralString:
			return PythonString(n.Value), precAtom, nil
		case LiteralNumber:
			return pythonNumber(n.Value), precAtom, nil
		case LiteralBoolean:
			if n.Value == "true" {
				return "True", precAtom, nil
			}
			return "False", precAtom, nil
		case LiteralNull:
			return "None", precAtom, nil
		}
		return "", 0, errors.AssertionFailedf("generate: unexpected literal kind %q", n.LitKind)
	}
	return "", 0, errors.AssertionFailedf("generate: unexpected expression %T", x)
}

// PythonString returns s as a double-quoted Python string literal.
// Letters outside ASCII are kept as they are.
func PythonString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// pythonNumber drops the leading zeros Python rejects on integer literals.
func pythonNumber(s string) string {
	if strings.ContainsRune(s, '.') {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
