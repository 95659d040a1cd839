// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
	"github.com/spf13/afero"
)

// SourceExt is the file extension of source-language programs.
const SourceExt = ".tr"

// IngestService handles sample ingestion into the pipeline.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	InsertBatch(ctx context.Context, batch *model.Batch) (int64, error)
	GetBatch(ctx context.Context, id int64) (*model.Batch, error)
	GetSampleBySHA256(ctx context.Context, sha256 string) (*model.Sample, error)
	InsertSample(ctx context.Context, sample *model.Sample) (int64, error)
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// IngestRequest contains the parameters for ingesting a sample.
type IngestRequest struct {
	Filename       string // original filename, e.g. "faktoriyel.tr"
	Request        string // what the program was written to do
	Source         []byte // program text
	ExpectedOutput string // what it printed when a person ran it
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	SampleID  int64
	WorkID    int64
	Duplicate bool // true if the source was already ingested (idempotent no-op)
}

// IngestFile ingests a single sample into the pipeline and queues it for transpiling.
// Returns IngestResult with Duplicate=true if the source already exists (idempotent no-op).
func (s *IngestService) IngestFile(ctx context.Context, batchID int64, req IngestRequest) (*IngestResult, error) {
	if len(strings.TrimSpace(string(req.Source))) == 0 {
		return nil, errors.Newf("ingest %s: empty source", req.Filename)
	}
	hashStr := model.HashSource(string(req.Source))

	existing, err := s.store.GetSampleBySHA256(ctx, hashStr)
	if err != nil {
		return nil, &ErrDatabase{Op: "check duplicate", Err: err}
	}
	if existing != nil {
		return &IngestResult{
			SampleID:  existing.ID,
			Duplicate: true,
		}, nil
	}

	stdName := formatStandardFilename(req.Filename, hashStr)
	fsPath := filepath.Join("batches", fmt.Sprintf("%d", batchID), stdName)
	fullPath := filepath.Join(s.dataDir, fsPath)

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrWriteFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	if err := afero.WriteFile(s.fs, fullPath, req.Source, 0644); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: fullPath, Err: err}
	}

	sample := &model.Sample{
		BatchID:        &batchID,
		Name:           stdName,
		SHA256:         hashStr,
		Request:        req.Request,
		Source:         string(req.Source),
		ExpectedOutput: req.ExpectedOutput,
		FsPath:         fsPath,
		CreatedAt:      time.Now().UTC(),
	}
	sampleID, err := s.store.InsertSample(ctx, sample)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert sample", Err: err}
	}

	workID, err := queueStage(ctx, s.store, sampleID, model.WorkStageTranspile)
	if err != nil {
		return nil, err
	}

	return &IngestResult{
		SampleID:  sampleID,
		WorkID:    workID,
		Duplicate: false,
	}, nil
}

// IngestBatch creates a batch and ingests multiple samples.
func (s *IngestService) IngestBatch(ctx context.Context, label, createdBy string, files []IngestRequest) (int64, []IngestResult, error) {
	batch := &model.Batch{
		Label:     label,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	batchID, err := s.store.InsertBatch(ctx, batch)
	if err != nil {
		return 0, nil, &ErrDatabase{Op: "insert batch", Err: err}
	}

	var results []IngestResult
	for _, file := range files {
		result, err := s.IngestFile(ctx, batchID, file)
		if err != nil {
			return batchID, results, err
		}
		results = append(results, *result)
	}

	return batchID, results, nil
}

// QueueExisting queues the transpile stage for samples that are already
// stored, such as the ones loaded from a JSON seed file.
func (s *IngestService) QueueExisting(ctx context.Context, sampleIDs []int64) ([]IngestResult, error) {
	var results []IngestResult
	for _, id := range sampleIDs {
		workID, err := queueStage(ctx, s.store, id, model.WorkStageTranspile)
		if err != nil {
			return results, err
		}
		results = append(results, IngestResult{SampleID: id, WorkID: workID})
	}
	return results, nil
}

// formatStandardFilename generates the standard filename: STEM.HASH8.tr
// Example: faktoriyel.3fa9c2d1.tr
func formatStandardFilename(filename, hash string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "sample"
	}
	return fmt.Sprintf("%s.%s%s", stem, hash[:8], SourceExt)
}

type workInserter interface {
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// queueStage creates a work row for the given stage.
func queueStage(ctx context.Context, store workInserter, sampleID int64, stage string) (int64, error) {
	work := &model.Work{
		SampleID:    sampleID,
		Stage:       stage,
		Status:      model.WorkStatusQueued,
		Attempt:     0,
		AvailableAt: time.Now().UTC(),
	}
	id, err := store.InsertWork(ctx, work)
	if err != nil {
		return 0, &ErrDatabase{Op: "insert " + stage + " work", Err: err}
	}
	return id, nil
}
