// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "context"

// Store is the persistence interface used by the pipeline and the exporter.
type Store interface {
	// batches and samples

	InsertBatch(ctx context.Context, batch *Batch) (int64, error)
	GetBatch(ctx context.Context, id int64) (*Batch, error)
	InsertSample(ctx context.Context, sample *Sample) (int64, error)
	GetSampleByID(ctx context.Context, id int64) (*Sample, error)
	GetSampleBySHA256(ctx context.Context, sha256 string) (*Sample, error)
	ListSamples(ctx context.Context, filter SampleFilter) ([]Sample, error)

	// translations

	InsertTranslation(ctx context.Context, tr *Translation) (int64, error)
	LatestTranslation(ctx context.Context, sampleID int64) (*Translation, error)
	UpdateTranslationStatus(ctx context.Context, id int64, status string, actualOutput *string) error

	// stages

	InsertWork(ctx context.Context, work *Work) (int64, error)
	ClaimWork(ctx context.Context, stage, workerID string) (*Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	ResetFailedWork(ctx context.Context, stage string) (int, error)
	GetFailedWork(ctx context.Context, stage string) ([]Work, error)
	GetWorkSummary(ctx context.Context) (map[string]map[string]int, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats holds store statistics.
type Stats struct {
	Batches      int
	Samples      int
	Translations int
	Verified     int
}
