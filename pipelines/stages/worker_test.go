// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/mdhender/turkpy/model"
	"github.com/mdhender/turkpy/pipelines/stages"
	"github.com/mdhender/turkpy/runner"
	store "github.com/mdhender/turkpy/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It stands in for the Python
// interpreter: it drains stdin and prints STAGES_HELPER_OUTPUT.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("STAGES_WANT_HELPER_PROCESS") != "1" {
		return
	}
	_, _ = io.ReadAll(os.Stdin)
	fmt.Print(os.Getenv("STAGES_HELPER_OUTPUT"))
	os.Exit(0)
}

func fakePython(t *testing.T, output string) *runner.Runner {
	t.Helper()
	t.Setenv("STAGES_WANT_HELPER_PROCESS", "1")
	t.Setenv("STAGES_HELPER_OUTPUT", output)
	return &runner.Runner{
		Command: []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		Timeout: 5 * time.Second,
	}
}

type pipeline struct {
	store  *store.SQLiteStore
	fs     afero.Fs
	ingest *stages.IngestService
	worker *stages.WorkerService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fs := afero.NewMemMapFs()
	ingest := stages.NewIngestService(s, "/data")
	ingest.SetFS(fs)
	worker := stages.NewWorkerService(s, "/data", "test-worker")
	worker.SetFS(fs)
	return &pipeline{store: s, fs: fs, ingest: ingest, worker: worker}
}

func (p *pipeline) add(t *testing.T, name, source, output string) int64 {
	t.Helper()
	_, results, err := p.ingest.IngestBatch(context.Background(), "test", "test", []stages.IngestRequest{
		{Filename: name, Source: []byte(source), ExpectedOutput: output},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0].SampleID
}

func TestClaimJob_AtomicLocking(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.add(t, "a.tr", "yazdır(1)", "1")

	const numWorkers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := stages.NewWorkerService(p.store, "/data", fmt.Sprintf("worker-%d", i))
			job, err := w.ClaimJob(ctx, model.WorkStageTranspile)
			if err != nil {
				t.Errorf("worker %d: claim error: %v", i, err)
				return
			}
			if job != nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, claimed)
}

func TestProcessJob_NoWork(t *testing.T) {
	p := newPipeline(t)
	ok, err := p.worker.ProcessJob(context.Background(), model.WorkStageTranspile)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessJob_Transpile(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	id := p.add(t, "merhaba.tr", `yazdır("Merhaba")`, "Merhaba")

	ok, err := p.worker.ProcessJob(ctx, model.WorkStageTranspile)
	require.NoError(t, err)
	require.True(t, ok)

	tr, err := p.store.LatestTranslation(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, "print(\"Merhaba\")\n", tr.Python)
	assert.Equal(t, model.TranslationStatusTranspiled, tr.Status)
	assert.NotEmpty(t, tr.Version)

	sample, err := p.store.GetSampleByID(ctx, id)
	require.NoError(t, err)
	data, err := afero.ReadFile(p.fs, "/data/"+sample.FsPath[:len(sample.FsPath)-len(".tr")]+".py")
	require.NoError(t, err)
	assert.Equal(t, tr.Python, string(data))

	summary, err := p.store.GetWorkSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[model.WorkStageTranspile][model.WorkStatusOk])
	assert.Equal(t, 1, summary[model.WorkStageVerify][model.WorkStatusQueued])
	assert.NotContains(t, summary, model.WorkStageParity, "no parity work without a compiler")
}

func TestProcessJob_TranspileQueuesParityWithCompiler(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.worker.SetCompiler(&runner.Runner{Command: []string{"turkc"}})
	p.add(t, "a.tr", "yazdır(1)", "1")

	_, err := p.worker.ProcessJob(ctx, model.WorkStageTranspile)
	require.NoError(t, err)

	summary, err := p.store.GetWorkSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[model.WorkStageParity][model.WorkStatusQueued])
}

func TestProcessJob_TranspileFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.add(t, "bozuk.tr", "yazdır(1 + ", "")

	ok, err := p.worker.ProcessJob(ctx, model.WorkStageTranspile)
	require.True(t, ok)
	require.Error(t, err)

	failed, err := p.store.GetFailedWork(ctx, model.WorkStageTranspile)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorCode)
	assert.Equal(t, stages.ErrCodeParse, *failed[0].ErrorCode)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Contains(t, *failed[0].ErrorMessage, "end of input")
}

func TestProcessJob_Verify(t *testing.T) {
	tests := []struct {
		name       string
		expected   string
		printed    string
		wantStatus string
		wantCode   string
	}{
		{"match", "Merhaba", "Merhaba\n", model.TranslationStatusVerified, ""},
		{"trailing space ignored", "1\n2", "1 \r\n2\n\n", model.TranslationStatusVerified, ""},
		{"mismatch", "Merhaba", "Selam\n", model.TranslationStatusMismatch, stages.ErrCodeVerifyMismatch},
		{"no expected output", "", "Merhaba\n", model.TranslationStatusUnchecked, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			p := newPipeline(t)
			p.worker.SetPython(fakePython(t, tc.printed))
			id := p.add(t, "merhaba.tr", `yazdır("Merhaba")`, tc.expected)

			_, err := p.worker.ProcessJob(ctx, model.WorkStageTranspile)
			require.NoError(t, err)

			ok, err := p.worker.ProcessJob(ctx, model.WorkStageVerify)
			require.True(t, ok)
			if tc.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, stages.ErrorCode(err))
			}

			tr, err := p.store.LatestTranslation(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, tr.Status)
			require.NotNil(t, tr.ActualOutput)
			assert.Equal(t, stages.NormalizeOutput(tc.printed), *tr.ActualOutput)
		})
	}
}

func TestProcessJob_VerifyWithPython(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not installed")
	}
	ctx := context.Background()
	p := newPipeline(t)
	p.worker.SetPython(&runner.Runner{Command: []string{python}, Timeout: 10 * time.Second})

	source := `fonksiyon faktoriyel(n) {
    eğer (n <= 1) { dön 1 }
    dön n * faktoriyel(n - 1)
}
yazdır(faktoriyel(5))`
	id := p.add(t, "faktoriyel.tr", source, "120")

	dr, err := p.worker.Drain(ctx, model.WorkStageTranspile, 0)
	require.NoError(t, err)
	assert.Equal(t, stages.DrainResult{Processed: 1}, dr)

	dr, err = p.worker.Drain(ctx, model.WorkStageVerify, 0)
	require.NoError(t, err)
	assert.Equal(t, stages.DrainResult{Processed: 1}, dr)

	tr, err := p.store.LatestTranslation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TranslationStatusVerified, tr.Status)
}

func TestProcessJob_VerifyWithoutPython(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.add(t, "a.tr", "yazdır(1)", "1")

	_, err := p.worker.ProcessJob(ctx, model.WorkStageTranspile)
	require.NoError(t, err)
	ok, err := p.worker.ProcessJob(ctx, model.WorkStageVerify)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestDrain_CountsFailures(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.add(t, "a.tr", "yazdır(1)", "1")
	p.add(t, "b.tr", "yazdır(@)", "")
	p.add(t, "c.tr", "yazdır(3)", "3")

	dr, err := p.worker.Drain(ctx, model.WorkStageTranspile, 2)
	require.NoError(t, err)
	assert.Equal(t, stages.DrainResult{Processed: 2, Failed: 1}, dr)

	dr, err = p.worker.Drain(ctx, model.WorkStageTranspile, 0)
	require.NoError(t, err)
	assert.Equal(t, stages.DrainResult{Processed: 1}, dr)

	failed, err := p.store.GetFailedWork(ctx, model.WorkStageTranspile)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, stages.ErrCodeLex, *failed[0].ErrorCode)
}

func TestNormalizeOutput(t *testing.T) {
	assert.Equal(t, "a\nb", stages.NormalizeOutput("a  \r\nb\t\n\n"))
	assert.Equal(t, "", stages.NormalizeOutput("\n\n"))
	assert.Equal(t, "  a", stages.NormalizeOutput("  a"))
}
