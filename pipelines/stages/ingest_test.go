// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"testing"
	"time"

	"github.com/mdhender/turkpy/model"
	"github.com/mdhender/turkpy/pipelines/stages"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements stages.IngestStore for testing.
type mockStore struct {
	batches     map[int64]*model.Batch
	samples     map[int64]*model.Sample
	work        map[int64]*model.Work
	sha256Index map[string]*model.Sample

	nextBatchID  int64
	nextSampleID int64
	nextWorkID   int64
}

func newMockStore() *mockStore {
	return &mockStore{
		batches:      make(map[int64]*model.Batch),
		samples:      make(map[int64]*model.Sample),
		work:         make(map[int64]*model.Work),
		sha256Index:  make(map[string]*model.Sample),
		nextBatchID:  1,
		nextSampleID: 1,
		nextWorkID:   1,
	}
}

func (m *mockStore) InsertBatch(_ context.Context, batch *model.Batch) (int64, error) {
	id := m.nextBatchID
	m.nextBatchID++
	batch.ID = id
	m.batches[id] = batch
	return id, nil
}

func (m *mockStore) GetBatch(_ context.Context, id int64) (*model.Batch, error) {
	return m.batches[id], nil
}

func (m *mockStore) GetSampleBySHA256(_ context.Context, sha256 string) (*model.Sample, error) {
	return m.sha256Index[sha256], nil
}

func (m *mockStore) InsertSample(_ context.Context, sample *model.Sample) (int64, error) {
	id := m.nextSampleID
	m.nextSampleID++
	sample.ID = id
	m.samples[id] = sample
	m.sha256Index[sample.SHA256] = sample
	return id, nil
}

func (m *mockStore) InsertWork(_ context.Context, work *model.Work) (int64, error) {
	id := m.nextWorkID
	m.nextWorkID++
	work.ID = id
	m.work[id] = work
	return id, nil
}

func TestIngestService_IngestFile(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	fs := afero.NewMemMapFs()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(fs)

	batchID, err := store.InsertBatch(ctx, &model.Batch{Label: "ilk", CreatedBy: "test", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	source := []byte(`yazdır("Merhaba")`)
	result, err := svc.IngestFile(ctx, batchID, stages.IngestRequest{
		Filename:       "selam/merhaba.tr",
		Request:        "Ekrana Merhaba yaz",
		Source:         source,
		ExpectedOutput: "Merhaba",
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate, "first ingest is not a duplicate")
	assert.NotZero(t, result.SampleID)
	assert.NotZero(t, result.WorkID)

	sample := store.samples[result.SampleID]
	require.NotNil(t, sample)
	assert.Equal(t, "merhaba.3474bbaf.tr", sample.Name)
	assert.Equal(t, "batches/1/merhaba.3474bbaf.tr", sample.FsPath)
	assert.Equal(t, model.HashSource(string(source)), sample.SHA256)
	assert.Equal(t, "Ekrana Merhaba yaz", sample.Request)
	assert.Equal(t, "Merhaba", sample.ExpectedOutput)
	require.NotNil(t, sample.BatchID)
	assert.Equal(t, batchID, *sample.BatchID)

	work := store.work[result.WorkID]
	require.NotNil(t, work)
	assert.Equal(t, model.WorkStageTranspile, work.Stage)
	assert.Equal(t, model.WorkStatusQueued, work.Status)
	assert.Equal(t, result.SampleID, work.SampleID)

	data, err := afero.ReadFile(fs, "/data/batches/1/merhaba.3474bbaf.tr")
	require.NoError(t, err)
	assert.Equal(t, source, data)
}

func TestIngestService_DuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	batchID, _ := store.InsertBatch(ctx, &model.Batch{Label: "ilk", CreatedAt: time.Now().UTC()})
	req := stages.IngestRequest{Filename: "topla.tr", Source: []byte("yazdır(1 + 2)")}

	result1, err := svc.IngestFile(ctx, batchID, req)
	require.NoError(t, err)

	req.Filename = "başka-ad.tr"
	result2, err := svc.IngestFile(ctx, batchID, req)
	require.NoError(t, err)
	assert.True(t, result2.Duplicate, "same source under another name is a duplicate")
	assert.Equal(t, result1.SampleID, result2.SampleID)
	assert.Zero(t, result2.WorkID, "no new work for a duplicate")
	assert.Len(t, store.work, 1)
}

func TestIngestService_RejectsEmptySource(t *testing.T) {
	store := newMockStore()
	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	_, err := svc.IngestFile(context.Background(), 1, stages.IngestRequest{Filename: "boş.tr", Source: []byte(" \n\t")})
	require.Error(t, err)
	assert.Empty(t, store.samples)
}

func TestIngestService_WriteFailure(t *testing.T) {
	store := newMockStore()
	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := svc.IngestFile(context.Background(), 1, stages.IngestRequest{Filename: "a.tr", Source: []byte("yazdır(1)")})
	require.Error(t, err)
	assert.Equal(t, stages.ErrCodeWriteFile, stages.ErrorCode(err))
	assert.Empty(t, store.samples, "nothing is recorded when the file cannot be written")
}

func TestIngestService_IngestBatch(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	files := []stages.IngestRequest{
		{Filename: "bir.tr", Source: []byte("yazdır(1)")},
		{Filename: "iki.tr", Source: []byte("yazdır(2)")},
		{Filename: "bir-kopya.tr", Source: []byte("yazdır(1)")},
	}

	batchID, results, err := svc.IngestBatch(ctx, "deneme", "test-user", files)
	require.NoError(t, err)
	assert.NotZero(t, batchID)
	require.Len(t, results, 3)
	assert.True(t, results[2].Duplicate)

	batch := store.batches[batchID]
	require.NotNil(t, batch)
	assert.Equal(t, "deneme", batch.Label)
	assert.Equal(t, "test-user", batch.CreatedBy)

	assert.Len(t, store.samples, 2)
	assert.Len(t, store.work, 2)
	for _, w := range store.work {
		assert.Equal(t, model.WorkStageTranspile, w.Stage)
	}
}

func TestIngestService_QueueExisting(t *testing.T) {
	store := newMockStore()
	svc := stages.NewIngestService(store, "/data")

	results, err := svc.QueueExisting(context.Background(), []int64{7, 9})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(9), results[1].SampleID)
	assert.Equal(t, int64(9), store.work[results[1].WorkID].SampleID)
}
