// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

type Option func(p *Renderer) error

// WithIndent pretty-prints the document, indenting each level by indent.
// An empty indent produces a single line.
func WithIndent(indent string) Option {
	return func(p *Renderer) error {
		p.indent = indent
		return nil
	}
}

// WithPositions controls the "line" and "column" fields on every node.
func WithPositions(flag bool) Option {
	return func(p *Renderer) error {
		p.positions = flag
		return nil
	}
}
