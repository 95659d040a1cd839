// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package lsp

import (
	"strings"
	"unicode/utf8"

	"github.com/mdhender/turkpy"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Source names this server in the diagnostics it publishes.
const Source = "turkpy"

// Diagnose checks text and converts the result to protocol diagnostics.
// It never returns nil, so a clean document publishes an empty list.
func Diagnose(text string) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, d := range turkpy.Check(text) {
		diags = append(diags, toProtocol(text, d))
	}
	return diags
}

func toProtocol(text string, d turkpy.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := Source
	message := d.Message
	for _, note := range d.Notes {
		message += "\n" + note
	}
	start := Position(text, d.Span.Line, d.Span.Column)
	end := start
	if line, _ := sourceLine(text, d.Span.Line); d.Span.Column >= 1 {
		// underline the character at the error, if there is one
		if r, ok := runeAt(line, d.Span.Column-1); ok {
			end.Character += protocol.UInteger(utf16Len(r))
		}
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// Position converts a 1-based line and rune column into a 0-based
// protocol position counted in UTF-16 code units.
func Position(text string, line, column int) protocol.Position {
	if line < 1 {
		line = 1
	}
	if column < 1 {
		column = 1
	}
	src, units := sourceLine(text, line)
	for i, r := range []rune(src) {
		if i >= column-1 {
			break
		}
		units += utf16Len(r)
	}
	// columns past the end of the line (end of input) keep counting one unit per column
	if n := utf8.RuneCountInString(src); column-1 > n {
		units += column - 1 - n
	}
	return protocol.Position{Line: protocol.UInteger(line - 1), Character: protocol.UInteger(units)}
}

// sourceLine returns the line as the checker saw it, without a leading
// byte order mark, and the UTF-16 units the editor still counts for it.
func sourceLine(text string, line int) (string, int) {
	s := lineAt(text, line)
	if line == 1 && strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF"), 1
	}
	return s, 0
}

func lineAt(text string, line int) string {
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return strings.TrimSuffix(text, "\r")
}

func runeAt(line string, index int) (rune, bool) {
	i := 0
	for _, r := range line {
		if i == index {
			return r, true
		}
		i++
	}
	return 0, false
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
