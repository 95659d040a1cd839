// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/model"
	"github.com/mdhender/turkpy/renderer"
	"github.com/mdhender/turkpy/runner"
	"github.com/spf13/afero"
)

// WorkerService claims and executes pipeline jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
	logger   *slog.Logger

	transpileOpts []turkpy.Option
	python        *runner.Runner // runs generated code for the verify stage
	compiler      *runner.Runner // native compiler for the parity stage, optional
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
	GetSampleByID(ctx context.Context, id int64) (*model.Sample, error)

	InsertTranslation(ctx context.Context, tr *model.Translation) (int64, error)
	LatestTranslation(ctx context.Context, sampleID int64) (*model.Translation, error)
	UpdateTranslationStatus(ctx context.Context, id int64, status string, actualOutput *string) error
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(store WorkerStore, dataDir, workerID string) *WorkerService {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

func (w *WorkerService) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetTranspileOptions sets the options passed to every transpile call.
func (w *WorkerService) SetTranspileOptions(opts ...turkpy.Option) {
	w.transpileOpts = opts
}

// SetPython sets the interpreter used by the verify stage.
// The generated code is piped to it on stdin with "-" as the only argument.
func (w *WorkerService) SetPython(r *runner.Runner) {
	w.python = r
}

// SetCompiler enables the parity stage.
func (w *WorkerService) SetCompiler(r *runner.Runner) {
	w.compiler = r
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteTranspile transpiles the sample, writes the Python next to the
// source file and records a translation.
// On success, creates a 'verify' work row, plus a 'parity' row when a
// compiler is configured and the sample has a file on disk.
func (w *WorkerService) ExecuteTranspile(ctx context.Context, job *model.Work, sample *model.Sample) error {
	python, err := turkpy.Transpile(sample.Source, w.transpileOpts...)
	if err != nil {
		return err
	}

	pyPath := w.pythonPath(sample)
	if err := w.fs.MkdirAll(filepath.Dir(pyPath), 0755); err != nil {
		return &ErrWriteFile{Op: "mkdir", Path: filepath.Dir(pyPath), Err: err}
	}
	if err := afero.WriteFile(w.fs, pyPath, []byte(python), 0644); err != nil {
		return &ErrWriteFile{Op: "write", Path: pyPath, Err: err}
	}

	tr := &model.Translation{
		SampleID: sample.ID,
		Python:   python,
		Version:  turkpy.Version().Core(),
		Status:   model.TranslationStatusTranspiled,
	}
	if _, err := w.store.InsertTranslation(ctx, tr); err != nil {
		return &ErrDatabase{Op: "insert translation", Err: err}
	}

	if _, err := queueStage(ctx, w.store, job.SampleID, model.WorkStageVerify); err != nil {
		return err
	}
	if w.compiler != nil && sample.FsPath != "" {
		if _, err := queueStage(ctx, w.store, job.SampleID, model.WorkStageParity); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteVerify runs the latest translation under the Python interpreter
// and compares what it prints with the sample's expected output.
// Samples without an expected output are recorded as unchecked.
func (w *WorkerService) ExecuteVerify(ctx context.Context, job *model.Work, sample *model.Sample) error {
	if w.python == nil {
		return errors.WithHint(errors.New("verify: no python interpreter"), "set python.command in turkpy.toml")
	}
	tr, err := w.store.LatestTranslation(ctx, sample.ID)
	if err != nil {
		return &ErrDatabase{Op: "latest translation", Err: err}
	}
	if tr == nil {
		return &ErrDatabase{Op: "latest translation", Err: errors.Newf("sample %d has no translation", sample.ID)}
	}

	res, err := w.python.RunInput(ctx, tr.Python, "-")
	if err != nil {
		return err
	}
	actual := NormalizeOutput(res.Stdout)

	status := model.TranslationStatusVerified
	var mismatch error
	if !sample.HasExpectedOutput() {
		status = model.TranslationStatusUnchecked
	} else if expected := NormalizeOutput(sample.ExpectedOutput); actual != expected {
		status = model.TranslationStatusMismatch
		mismatch = &ErrVerifyMismatch{SampleID: sample.ID, Expected: expected, Actual: actual}
	}
	if err := w.store.UpdateTranslationStatus(ctx, tr.ID, status, &actual); err != nil {
		return &ErrDatabase{Op: "update translation", Err: err}
	}
	w.logger.Debug("verify", "sample", sample.ID, "status", status, "elapsed", res.Duration)
	return mismatch
}

// ExecuteParity compares the native compiler's AST dump of the sample
// with the one rendered in-process.
func (w *WorkerService) ExecuteParity(ctx context.Context, job *model.Work, sample *model.Sample) error {
	if w.compiler == nil {
		return errors.WithHint(errors.New("parity: no compiler"), "set compiler.command in turkpy.toml")
	}
	if sample.FsPath == "" {
		return &ErrWriteFile{Op: "find", Path: sample.Name, Err: errors.New("sample has no file")}
	}

	prog, err := turkpy.ParseSource([]byte(strings.TrimPrefix(sample.Source, "\uFEFF")))
	if err != nil {
		return err
	}
	r, err := renderer.New(renderer.WithIndent(""))
	if err != nil {
		return err
	}
	local, err := r.Render(prog)
	if err != nil {
		return err
	}

	m, err := w.compiler.Parity(ctx, filepath.Join(w.dataDir, sample.FsPath), local)
	if err != nil {
		return err
	}
	if m != nil {
		return &ErrParityMismatch{SampleID: sample.ID, Mismatch: m}
	}
	return nil
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetSample retrieves the sample associated with a job.
func (w *WorkerService) GetSample(ctx context.Context, job *model.Work) (*model.Sample, error) {
	return w.store.GetSampleByID(ctx, job.SampleID)
}

// ProcessJob claims, executes, and finishes a single job for the given stage.
// Returns (jobProcessed, error). jobProcessed is true if a job was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, errors.Wrap(err, "claim job")
	}
	if job == nil {
		return false, nil
	}

	sample, err := w.GetSample(ctx, job)
	if err != nil {
		_ = w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get sample: %v", err),
		})
		return true, errors.Wrap(err, "get sample")
	}
	if sample == nil {
		_ = w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "sample not found",
		})
		return true, errors.Newf("sample %d not found", job.SampleID)
	}

	var execErr error
	switch stage {
	case model.WorkStageTranspile:
		execErr = w.ExecuteTranspile(ctx, job, sample)
	case model.WorkStageVerify:
		execErr = w.ExecuteVerify(ctx, job, sample)
	case model.WorkStageParity:
		execErr = w.ExecuteParity(ctx, job, sample)
	default:
		execErr = errors.Newf("unknown stage: %s", stage)
	}

	if execErr != nil {
		w.logger.Info("job failed", "job", job.ID, "stage", stage, "sample", sample.Name, "error", execErr)
		_ = w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrorCode(execErr),
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, errors.Wrap(err, "finish job")
	}
	w.logger.Debug("job done", "job", job.ID, "stage", stage, "sample", sample.Name)
	return true, nil
}

// DrainResult counts the jobs a Drain call handled.
type DrainResult struct {
	Processed int
	Failed    int
}

// Drain processes jobs for stage until the queue is empty, limit jobs have
// been handled (limit <= 0 means no limit) or ctx is done.
// Job failures are recorded on the job and counted, not returned.
func (w *WorkerService) Drain(ctx context.Context, stage string, limit int) (DrainResult, error) {
	var dr DrainResult
	for limit <= 0 || dr.Processed < limit {
		if err := ctx.Err(); err != nil {
			return dr, err
		}
		ok, err := w.ProcessJob(ctx, stage)
		if !ok {
			return dr, err
		}
		dr.Processed++
		if err != nil {
			dr.Failed++
		}
	}
	return dr, nil
}

// pythonPath returns where the generated code of a sample is written.
// Samples without a file on disk are written under "translations".
func (w *WorkerService) pythonPath(sample *model.Sample) string {
	if sample.FsPath == "" {
		return filepath.Join(w.dataDir, "translations", strconv.FormatInt(sample.ID, 10)+".py")
	}
	fullPath := filepath.Join(w.dataDir, sample.FsPath)
	return strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + ".py"
}

// NormalizeOutput makes program output comparable: line endings become
// "\n", trailing spaces are dropped from every line and trailing blank
// lines are dropped from the end.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
