// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
)

// Mismatch is the first place two AST documents disagree.
type Mismatch struct {
	Path     string // "$.body[0].value.operator"
	External any
	Local    any
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("%s: external %v, local %v", m.Path, m.External, m.Local)
}

// Parity runs DumpAST on path and compares the result with local,
// the document produced in-process for the same file.
// It returns nil when the two trees agree apart from positions.
func (r *Runner) Parity(ctx context.Context, path string, local []byte) (*Mismatch, error) {
	res, err := r.DumpAST(ctx, path)
	if err != nil {
		return nil, err
	}
	return CompareAST([]byte(res.Stdout), local)
}

// CompareAST compares two AST documents, ignoring "line" and "column".
func CompareAST(external, local []byte) (*Mismatch, error) {
	a, err := decode(external)
	if err != nil {
		return nil, errors.Wrap(err, "external document")
	}
	b, err := decode(local)
	if err != nil {
		return nil, errors.Wrap(err, "local document")
	}
	return diff("$", a, b), nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

var ignoredKeys = map[string]bool{"line": true, "column": true}

func diff(path string, a, b any) *Mismatch {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return &Mismatch{Path: path, External: a, Local: b}
		}
		keys := map[string]bool{}
		for k := range av {
			keys[k] = true
		}
		for k := range bv {
			keys[k] = true
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			if !ignoredKeys[k] {
				sorted = append(sorted, k)
			}
		}
		sort.Strings(sorted)
		for _, k := range sorted {
			if m := diff(path+"."+k, av[k], bv[k]); m != nil {
				return m
			}
		}
		return nil
	case []any:
		bv, ok := b.([]any)
		if !ok {
			return &Mismatch{Path: path, External: a, Local: b}
		}
		for i := 0; i < len(av) && i < len(bv); i++ {
			if m := diff(fmt.Sprintf("%s[%d]", path, i), av[i], bv[i]); m != nil {
				return m
			}
		}
		if len(av) != len(bv) {
			return &Mismatch{Path: path + ".length", External: len(av), Local: len(bv)}
		}
		return nil
	}
	if !reflect.DeepEqual(a, b) {
		return &Mismatch{Path: path, External: a, Local: b}
	}
	return nil
}
