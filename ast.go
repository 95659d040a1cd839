// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

// Node is the interface implemented by all AST nodes.
//
// Kind returns a short, stable identifier for the node type, such as
// "FunctionDef" or "BinaryExpr". The AST dump uses it as the "type" field.
//
// Span reports the location of this node in the source text. Positions
// are kept for diagnostics only; they never affect code generation.
type Node interface {
	Kind() string
	Span() Span
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// BaseNode carries the span shared by every node.
type BaseNode struct {
	Loc Span
}

func (b *BaseNode) Span() Span { return b.Loc }

// Program is the root of the tree. It owns every descendant node.
type Program struct {
	BaseNode
	Body []Stmt
}

// FunctionDef is a function at any level, or a method when it is
// held by a ClassDef.
type FunctionDef struct {
	BaseNode
	Name   string
	Params []string
	Body   []Stmt
}

// ClassDef holds methods only; the language has no field declarations.
type ClassDef struct {
	BaseNode
	Name    string
	Methods []*FunctionDef
}

// If has an optional else branch. An else-if chain is an Else
// holding exactly one *If.
type If struct {
	BaseNode
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when there is no else branch
}

// IsElseIf reports whether the else branch is a chained if-statement.
func (n *If) IsElseIf() (*If, bool) {
	if len(n.Else) != 1 {
		return nil, false
	}
	elif, ok := n.Else[0].(*If)
	return elif, ok
}

type While struct {
	BaseNode
	Cond Expr
	Body []Stmt
}

// Return has a nil Value for a bare return.
type Return struct {
	BaseNode
	Value Expr
}

type Print struct {
	BaseNode
	Value Expr
}

// ExprStmt wraps an expression evaluated for its side effects.
type ExprStmt struct {
	BaseNode
	X Expr
}

// Assignment targets an *Identifier or a *Member.
type Assignment struct {
	BaseNode
	Target Expr
	Value  Expr
}

type Break struct {
	BaseNode
}

type Continue struct {
	BaseNode
}

// BinaryExpr holds the operator as written in the source ("+", "ve", "&&", ...).
type BinaryExpr struct {
	BaseNode
	Op    Kind
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	BaseNode
	Op      Kind
	Operand Expr
}

// Call has an *Identifier or *Member callee.
type Call struct {
	BaseNode
	Callee Expr
	Args   []Expr
}

// Member is attribute access, "nesne.alan".
type Member struct {
	BaseNode
	Object Expr
	Name   string
}

// Identifier keeps the source spelling in NFC form.
type Identifier struct {
	BaseNode
	Name string
}

// Self is the "bu" keyword, the receiver inside a method.
type Self struct {
	BaseNode
}

// LiteralKind discriminates Literal values.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBoolean LiteralKind = "boolean"
	LiteralNull    LiteralKind = "null"
)

// Literal holds the value as text: the string content without quotes,
// the digits of a number, "true"/"false" for booleans, "" for null.
type Literal struct {
	BaseNode
	LitKind LiteralKind
	Value   string
}

func (*Program) Kind() string     { return "Program" }
func (*FunctionDef) Kind() string { return "FunctionDef" }
func (*ClassDef) Kind() string    { return "ClassDef" }
func (*If) Kind() string          { return "If" }
func (*While) Kind() string       { return "While" }
func (*Return) Kind() string      { return "Return" }
func (*Print) Kind() string       { return "Print" }
func (*ExprStmt) Kind() string    { return "ExprStatement" }
func (*Assignment) Kind() string  { return "Assignment" }
func (*Break) Kind() string       { return "Break" }
func (*Continue) Kind() string    { return "Continue" }
func (*BinaryExpr) Kind() string  { return "BinaryExpr" }
func (*UnaryExpr) Kind() string   { return "UnaryExpr" }
func (*Call) Kind() string        { return "Call" }
func (*Member) Kind() string      { return "Member" }
func (*Identifier) Kind() string  { return "Identifier" }
func (*Self) Kind() string        { return "Self" }
func (*Literal) Kind() string     { return "Literal" }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*Return) stmtNode()      {}
func (*Print) stmtNode()       {}
func (*ExprStmt) stmtNode()    {}
func (*Assignment) stmtNode()  {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}

func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*Call) exprNode()       {}
func (*Member) exprNode()     {}
func (*Identifier) exprNode() {}
func (*Self) exprNode()       {}
func (*Literal) exprNode()    {}

// Inspect traverses the tree in depth-first order. It calls f(n) for each
// node; if f returns false, the children of n are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	stmts := func(list []Stmt) {
		for _, s := range list {
			Inspect(s, f)
		}
	}
	switch n := n.(type) {
	case *Program:
		stmts(n.Body)
	case *FunctionDef:
		stmts(n.Body)
	case *ClassDef:
		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *If:
		Inspect(n.Cond, f)
		stmts(n.Then)
		stmts(n.Else)
	case *While:
		Inspect(n.Cond, f)
		stmts(n.Body)
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Print:
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *Assignment:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *Call:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Member:
		Inspect(n.Object, f)
	}
}
