// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/runner"
)

// ErrWriteFile is returned when file I/O operations fail.
type ErrWriteFile struct {
	Op   string // mkdir, write, read
	Path string
	Err  error
}

func (e *ErrWriteFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrWriteFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrVerifyMismatch is returned when the generated Python prints
// something other than the sample's expected output.
type ErrVerifyMismatch struct {
	SampleID int64
	Expected string
	Actual   string
}

func (e *ErrVerifyMismatch) Error() string {
	return fmt.Sprintf("sample %d: output %q, want %q", e.SampleID, clip(e.Actual), clip(e.Expected))
}

// ErrParityMismatch is returned when the native compiler and the local
// renderer disagree about a sample's AST.
type ErrParityMismatch struct {
	SampleID int64
	Mismatch *runner.Mismatch
}

func (e *ErrParityMismatch) Error() string {
	return fmt.Sprintf("sample %d: ast differs at %s", e.SampleID, e.Mismatch)
}

// Error code constants for database storage.
const (
	ErrCodeLex            = "LEX_ERROR"
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeExternalTool   = "EXTERNAL_TOOL"
	ErrCodeVerifyMismatch = "VERIFY_MISMATCH"
	ErrCodeParityMismatch = "PARITY_MISMATCH"
	ErrCodeDatabase       = "DATABASE"
	ErrCodeWriteFile      = "WRITE_FILE"
	ErrCodeUnknown        = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
// Wrapped errors are classified by the first typed error in the chain.
func ErrorCode(err error) string {
	var te *turkpy.TranspileError
	var lexErr *turkpy.LexError
	var parseErr *turkpy.ParseError
	var toolErr *runner.ExternalToolError
	var writeErr *ErrWriteFile
	var dbErr *ErrDatabase
	var verifyErr *ErrVerifyMismatch
	var parityErr *ErrParityMismatch
	switch {
	case errors.As(err, &te):
		if te.Stage == turkpy.StageLex {
			return ErrCodeLex
		}
		return ErrCodeParse
	case errors.As(err, &lexErr):
		return ErrCodeLex
	case errors.As(err, &parseErr):
		return ErrCodeParse
	case errors.As(err, &toolErr):
		return ErrCodeExternalTool
	case errors.As(err, &verifyErr):
		return ErrCodeVerifyMismatch
	case errors.As(err, &parityErr):
		return ErrCodeParityMismatch
	case errors.As(err, &dbErr):
		return ErrCodeDatabase
	case errors.As(err, &writeErr):
		return ErrCodeWriteFile
	default:
		return ErrCodeUnknown
	}
}

// clip shortens s for error messages stored in the work table.
func clip(s string) string {
	const max = 80
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
