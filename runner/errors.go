// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package runner

import (
	"fmt"
)

// Kind classifies why the external tool did not produce a usable result.
type Kind string

const (
	KindMissing   Kind = "missing"   // the executable could not be started
	KindExit      Kind = "exit"      // non-zero exit status or output on stderr
	KindTimeout   Kind = "timeout"   // killed after the timeout expired
	KindMalformed Kind = "malformed" // exit 0 but stdout is not a JSON document
)

// ExternalToolError reports a failure of the external compiler.
// It never means the transpiler itself crashed.
type ExternalToolError struct {
	Kind     Kind
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	switch e.Kind {
	case KindExit:
		if e.Stderr != "" {
			return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, firstLine(e.Stderr))
		}
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	case KindTimeout:
		return fmt.Sprintf("%s: timed out", e.Command)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Kind)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	for i, ch := range s {
		if ch == '\n' {
			return s[:i]
		}
	}
	return s
}
