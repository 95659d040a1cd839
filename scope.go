// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

// scope tracks the names bound in the module or in one function body.
// Class bodies hold only methods and do not get a scope, matching Python,
// where methods see through the class to the enclosing function.
//
// An assignment inside a function rebinds the nearest enclosing binding
// of that name. When that binding lives outside the function, the
// generator declares the name global or nonlocal.
type scope struct {
	parent   *scope
	params   map[string]bool
	defined  map[string]bool // def and class names
	assigned []string        // assignment targets, in order of first use
	binds    map[string]bool // params, defined and assigned
	decls    map[string]string
}

func newScope(parent *scope, params []string, body []Stmt) *scope {
	s := &scope{
		parent:  parent,
		params:  map[string]bool{},
		defined: map[string]bool{},
		binds:   map[string]bool{},
		decls:   map[string]string{},
	}
	for _, p := range params {
		s.params[p] = true
		s.binds[p] = true
	}
	s.collect(body)
	if parent != nil {
		for _, name := range s.assigned {
			if s.params[name] || s.defined[name] {
				continue
			}
			if kind := parent.lookup(name); kind != "" {
				s.decls[name] = kind
			}
		}
	}
	return s
}

// collect records the names a statement list binds, without entering
// nested function or class bodies.
func (s *scope) collect(stmts []Stmt) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *Assignment:
			if id, ok := n.Target.(*Identifier); ok {
				if !s.isAssigned(id.Name) {
					s.assigned = append(s.assigned, id.Name)
				}
				s.binds[id.Name] = true
			}
		case *FunctionDef:
			s.defined[n.Name] = true
			s.binds[n.Name] = true
		case *ClassDef:
			s.defined[n.Name] = true
			s.binds[n.Name] = true
		case *If:
			s.collect(n.Then)
			s.collect(n.Else)
		case *While:
			s.collect(n.Body)
		}
	}
}

func (s *scope) isAssigned(name string) bool {
	for _, a := range s.assigned {
		if a == name {
			return true
		}
	}
	return false
}

// lookup reports how a nested function must declare name to rebind it:
// "global", "nonlocal" or "" when no enclosing scope binds it.
func (s *scope) lookup(name string) string {
	if s.parent == nil {
		if s.binds[name] {
			return "global"
		}
		return ""
	}
	if decl, ok := s.decls[name]; ok {
		return decl
	}
	if s.binds[name] {
		return "nonlocal"
	}
	return s.parent.lookup(name)
}

// declarations returns the global and nonlocal names, each in order of first assignment.
func (s *scope) declarations() (globals, nonlocals []string) {
	for _, name := range s.assigned {
		switch s.decls[name] {
		case "global":
			globals = append(globals, name)
		case "nonlocal":
			nonlocals = append(nonlocals, name)
		}
	}
	return globals, nonlocals
}
