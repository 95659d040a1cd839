// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package renderer produces the JSON document printed by "turkc --dump-ast".
//
// Every node is an object with a "type" field naming the node kind,
// the node's own fields, and its 1-based "line" and "column".
package renderer

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy"
)

type Renderer struct {
	indent    string
	positions bool
}

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		indent:    "  ",
		positions: true,
	}
	for _, option := range options {
		err := option(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Render returns the JSON document for prog, terminated by a new-line.
func (r *Renderer) Render(prog *turkpy.Program) ([]byte, error) {
	tree, err := r.Tree(prog)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.indent != "" {
		enc.SetIndent("", r.indent)
	}
	if err := enc.Encode(tree); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	return buf.Bytes(), nil
}

// Tree returns the document for n as nested maps and slices.
func (r *Renderer) Tree(n turkpy.Node) (map[string]any, error) {
	if n == nil {
		return nil, errors.AssertionFailedf("render: nil node")
	}
	obj := map[string]any{"type": n.Kind()}
	if r.positions {
		obj["line"], obj["column"] = n.Span().Line, n.Span().Column
	}

	var err error
	switch n := n.(type) {
	case *turkpy.Program:
		obj["body"], err = r.stmts(n.Body)
	case *turkpy.FunctionDef:
		obj["name"] = n.Name
		obj["params"] = append([]string{}, n.Params...)
		obj["body"], err = r.stmts(n.Body)
	case *turkpy.ClassDef:
		obj["name"] = n.Name
		methods := []any{}
		for _, m := range n.Methods {
			method, err := r.Tree(m)
			if err != nil {
				return nil, err
			}
			methods = append(methods, method)
		}
		obj["methods"] = methods
	case *turkpy.If:
		if obj["condition"], err = r.Tree(n.Cond); err != nil {
			return nil, err
		}
		if obj["then"], err = r.stmts(n.Then); err != nil {
			return nil, err
		}
		if n.Else == nil {
			obj["else"] = nil
		} else {
			obj["else"], err = r.stmts(n.Else)
		}
	case *turkpy.While:
		if obj["condition"], err = r.Tree(n.Cond); err != nil {
			return nil, err
		}
		obj["body"], err = r.stmts(n.Body)
	case *turkpy.Return:
		obj["value"] = nil
		if n.Value != nil {
			obj["value"], err = r.Tree(n.Value)
		}
	case *turkpy.Print:
		obj["value"], err = r.Tree(n.Value)
	case *turkpy.ExprStmt:
		obj["expression"], err = r.Tree(n.X)
	case *turkpy.Assignment:
		if obj["target"], err = r.Tree(n.Target); err != nil {
			return nil, err
		}
		obj["value"], err = r.Tree(n.Value)
	case *turkpy.Break, *turkpy.Continue, *turkpy.Self:
		// no fields
	case *turkpy.BinaryExpr:
		obj["operator"] = n.Op.String()
		if obj["left"], err = r.Tree(n.Left); err != nil {
			return nil, err
		}
		obj["right"], err = r.Tree(n.Right)
	case *turkpy.UnaryExpr:
		obj["operator"] = n.Op.String()
		obj["operand"], err = r.Tree(n.Operand)
	case *turkpy.Call:
		if obj["callee"], err = r.Tree(n.Callee); err != nil {
			return nil, err
		}
		args := []any{}
		for _, a := range n.Args {
			arg, err := r.Tree(a)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		obj["args"] = args
	case *turkpy.Member:
		obj["name"] = n.Name
		obj["object"], err = r.Tree(n.Object)
	case *turkpy.Identifier:
		obj["name"] = n.Name
	case *turkpy.Literal:
		obj["kind"] = string(n.LitKind)
		switch n.LitKind {
		case turkpy.LiteralString:
			obj["value"] = n.Value
		case turkpy.LiteralNumber:
			obj["value"] = json.Number(n.Value)
		case turkpy.LiteralBoolean:
			obj["value"] = n.Value == "true"
		case turkpy.LiteralNull:
			obj["value"] = nil
		default:
			return nil, errors.AssertionFailedf("render: unexpected literal kind %q", n.LitKind)
		}
	default:
		return nil, errors.AssertionFailedf("render: unexpected node %T", n)
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *Renderer) stmts(list []turkpy.Stmt) ([]any, error) {
	out := make([]any, 0, len(list))
	for _, s := range list {
		obj, err := r.Tree(s)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}
