// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Diagnostic represents a lexer or parser error
// with a location in the original source.
type Diagnostic struct {
	Severity slog.Level // Error, Warning, Info
	Stage    Stage      // "lex" or "parse"
	Message  string     // "expected \"}\", found end of input"
	Span     Span       // where in the file it occurred
	Notes    []string   // optional additional help messages
}

// Check runs the lexer and parser over source and reports what they reject.
// The tree is also run through Generate with its defaults, which catches
// a constructor that returns a value. It returns nil when the source is valid.
func Check(source string) []Diagnostic {
	var prog *Program
	toks, err := Tokenize([]byte(strings.TrimPrefix(source, "\uFEFF")))
	if err == nil {
		prog, err = Parse(toks)
	}
	if err == nil {
		_, err = Generate(prog)
	}
	if err == nil {
		return nil
	}
	return []Diagnostic{DiagnosticFromError(err)}
}

// DiagnosticFromError converts a lexer, parser or transpile error.
// Any other error becomes a diagnostic at 1:1.
func DiagnosticFromError(err error) Diagnostic {
	te, ok := newTranspileError(err).(*TranspileError)
	if !ok {
		return Diagnostic{
			Severity: slog.LevelError,
			Message:  err.Error(),
			Span:     Span{Line: 1, Column: 1},
		}
	}
	diag := Diagnostic{
		Severity: slog.LevelError,
		Stage:    te.Stage,
		Message:  te.Message,
		Span:     te.Span(),
	}
	if pe, ok := te.Err.(*ParseError); ok && pe.Found == "end of input" {
		diag.Notes = append(diag.Notes, "input ended before the construct was closed")
	}
	return diag
}

// PrintDiagnostic writes a header, the source line and a caret under the column.
func PrintDiagnostic(w io.Writer, diag Diagnostic, filename string, src []byte) {
	// Header: file:line:column: error: message
	span := diag.Span
	_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
		filename, span.Line, span.Column,
		strings.ToLower(diag.Severity.String()), diag.Message)

	line := findLine(src, span.Line)
	_, _ = fmt.Fprintf(w, "    %s\n", line)

	// caret underline
	caretCount := span.Column - 1
	if caretCount < 0 {
		caretCount = 0
	}
	_, _ = fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", caretCount))

	// Notes
	for _, note := range diag.Notes {
		_, _ = fmt.Fprintf(w, "    note: %s\n", note)
	}
}

// findLine returns the 1-based line n of src without its line ending.
// Tabs are replaced by single spaces so the caret lines up.
// If there is no such line, it returns an empty string.
func findLine(src []byte, n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	if n > len(lines) {
		return ""
	}
	line := strings.TrimSuffix(lines[n-1], "\r")
	return strings.ReplaceAll(line, "\t", " ")
}
