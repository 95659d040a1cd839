// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
)

// InsertBatch inserts a Batch and returns its assigned ID.
func (s *SQLiteStore) InsertBatch(ctx context.Context, batch *model.Batch) (int64, error) {
	const query = `
		INSERT INTO batches (label, created_by, created_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		batch.Label,
		nullString(batch.CreatedBy),
		formatTime(batch.CreatedAt),
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert batch")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get batch id")
	}
	batch.ID = id
	return id, nil
}

// GetBatch retrieves a Batch by ID, or nil if not found.
func (s *SQLiteStore) GetBatch(ctx context.Context, id int64) (*model.Batch, error) {
	const query = `
		SELECT id, label, created_by, created_at
		FROM batches
		WHERE id = ?
	`
	var batch model.Batch
	var createdBy sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&batch.ID, &batch.Label, &createdBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "get batch")
	}
	batch.CreatedBy = createdBy.String
	batch.CreatedAt = parseTime(createdAt)
	return &batch, nil
}

// InsertSample inserts a Sample and returns its assigned ID.
func (s *SQLiteStore) InsertSample(ctx context.Context, sample *model.Sample) (int64, error) {
	const query = `
		INSERT INTO samples (batch_id, name, sha256, request, source, expected_output, fs_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var batchID any
	if sample.BatchID != nil {
		batchID = *sample.BatchID
	}
	result, err := s.db.ExecContext(ctx, query,
		batchID,
		sample.Name,
		sample.SHA256,
		sample.Request,
		sample.Source,
		sample.ExpectedOutput,
		nullString(sample.FsPath),
		formatTime(sample.CreatedAt),
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert sample")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get sample id")
	}
	sample.ID = id
	return id, nil
}

const sampleColumns = `id, batch_id, name, sha256, request, source, expected_output, fs_path, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (*model.Sample, error) {
	var sample model.Sample
	var batchID sql.NullInt64
	var fsPath sql.NullString
	var createdAt string
	if err := row.Scan(
		&sample.ID,
		&batchID,
		&sample.Name,
		&sample.SHA256,
		&sample.Request,
		&sample.Source,
		&sample.ExpectedOutput,
		&fsPath,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if batchID.Valid {
		sample.BatchID = &batchID.Int64
	}
	sample.FsPath = fsPath.String
	sample.CreatedAt = parseTime(createdAt)
	return &sample, nil
}

// GetSampleByID returns a sample by ID, or nil if not found.
func (s *SQLiteStore) GetSampleByID(ctx context.Context, id int64) (*model.Sample, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "get sample by id")
	}
	return sample, nil
}

// GetSampleBySHA256 returns a sample by SHA256 hash, or nil if not found.
func (s *SQLiteStore) GetSampleBySHA256(ctx context.Context, sha256 string) (*model.Sample, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE sha256 = ? LIMIT 1`, sha256)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "get sample by sha256")
	}
	return sample, nil
}

// ListSamples returns the samples matching filter, ordered by ID.
func (s *SQLiteStore) ListSamples(ctx context.Context, filter model.SampleFilter) ([]model.Sample, error) {
	var where []string
	var args []any
	if filter.BatchID != nil {
		where = append(where, "batch_id = ?")
		args = append(args, *filter.BatchID)
	}
	if filter.VerifiedOnly {
		where = append(where, `(SELECT status FROM translations t
			WHERE t.sample_id = samples.id
			ORDER BY t.id DESC LIMIT 1) = 'verified'`)
	}
	query := `SELECT ` + sampleColumns + ` FROM samples`
	if len(where) != 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list samples")
	}
	defer rows.Close()

	var samples []model.Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan sample")
		}
		samples = append(samples, *sample)
	}
	return samples, rows.Err()
}

// InsertTranslation inserts a Translation and returns its assigned ID.
func (s *SQLiteStore) InsertTranslation(ctx context.Context, tr *model.Translation) (int64, error) {
	const query = `
		INSERT INTO translations (sample_id, python, version, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	status := tr.Status
	if status == "" {
		status = model.TranslationStatusTranspiled
	}
	result, err := s.db.ExecContext(ctx, query,
		tr.SampleID,
		tr.Python,
		tr.Version,
		status,
		formatTime(tr.CreatedAt),
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert translation")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get translation id")
	}
	tr.ID, tr.Status = id, status
	return id, nil
}

// LatestTranslation returns the newest translation of a sample, or nil if there is none.
func (s *SQLiteStore) LatestTranslation(ctx context.Context, sampleID int64) (*model.Translation, error) {
	const query = `
		SELECT id, sample_id, python, version, status, actual_output, created_at, verified_at
		FROM translations
		WHERE sample_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var tr model.Translation
	var actualOutput, verifiedAt sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, sampleID).Scan(
		&tr.ID, &tr.SampleID, &tr.Python, &tr.Version, &tr.Status, &actualOutput, &createdAt, &verifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "latest translation")
	}
	tr.ActualOutput = nullStringPtr(actualOutput)
	tr.CreatedAt = parseTime(createdAt)
	tr.VerifiedAt = parseTimePtr(verifiedAt)
	return &tr, nil
}

// UpdateTranslationStatus records the outcome of running a translation.
func (s *SQLiteStore) UpdateTranslationStatus(ctx context.Context, id int64, status string, actualOutput *string) error {
	const query = `
		UPDATE translations
		SET status = ?,
		    actual_output = ?,
		    verified_at = ?
		WHERE id = ?
	`
	var output any
	if actualOutput != nil {
		output = *actualOutput
	}
	result, err := s.db.ExecContext(ctx, query, status, output, formatTime(time.Now()), id)
	if err != nil {
		return errors.Wrap(err, "update translation")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Newf("update translation: no translation %d", id)
	}
	return nil
}
