// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package model defines the records kept by the sample store.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Batch groups the samples ingested together.
type Batch struct {
	ID        int64
	Label     string
	CreatedBy string
	CreatedAt time.Time
}

// Sample is one program of the conformance corpus: the natural-language
// request it answers, its source text, and the output a person observed
// when running it.
type Sample struct {
	ID             int64
	BatchID        *int64
	Name           string // e.g. "faktoriyel.tr"
	SHA256         string // of Source; samples are unique by content
	Request        string
	Source         string
	ExpectedOutput string
	FsPath         string // relative to the data directory
	CreatedAt      time.Time
}

// HasExpectedOutput reports whether the sample can be verified.
func (s *Sample) HasExpectedOutput() bool {
	return s.ExpectedOutput != ""
}

// Translation is the Python produced for a sample by one transpiler version.
type Translation struct {
	ID           int64
	SampleID     int64
	Python       string
	Version      string
	Status       string
	ActualOutput *string
	CreatedAt    time.Time
	VerifiedAt   *time.Time
}

// Translation status values.
const (
	TranslationStatusTranspiled = "transpiled" // not yet run
	TranslationStatusVerified   = "verified"   // output matched
	TranslationStatusMismatch   = "mismatch"   // output differed
	TranslationStatusUnchecked  = "unchecked"  // no expected output to compare with
)

// Work is a pipeline job for one sample.
type Work struct {
	ID           int64
	SampleID     int64
	Stage        string
	Status       string
	Attempt      int
	AvailableAt  time.Time
	LockedBy     *string
	LockedAt     *time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
	ErrorCode    *string
	ErrorMessage *string
}

// Work stage values.
const (
	WorkStageTranspile = "transpile"
	WorkStageVerify    = "verify"
	WorkStageParity    = "parity"
)

// Work status values.
const (
	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)

// SampleFilter selects samples for export.
type SampleFilter struct {
	BatchID      *int64
	VerifiedOnly bool // only samples whose latest translation is verified
}

// HashSource returns the hex SHA-256 of a sample's source text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
