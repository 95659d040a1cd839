// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
)

const workColumns = `id, sample_id, stage, status, attempt, available_at,
		locked_by, locked_at, started_at, finished_at, error_code, error_message`

// InsertWork queues a job and fills in its ID, status and availability.
// A zero AvailableAt means now.
func (s *SQLiteStore) InsertWork(ctx context.Context, work *model.Work) (int64, error) {
	const query = `
		INSERT INTO work (sample_id, stage, status, attempt, available_at)
		VALUES (?, ?, ?, ?, ?)
	`
	status := work.Status
	if status == "" {
		status = model.WorkStatusQueued
	}
	availableAt := work.AvailableAt
	if availableAt.IsZero() {
		availableAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx, query,
		work.SampleID,
		work.Stage,
		status,
		work.Attempt,
		formatTime(availableAt),
	)
	if err != nil {
		return 0, errors.Wrapf(err, "insert %s work", work.Stage)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get work id")
	}
	work.ID, work.Status, work.AvailableAt = id, status, availableAt
	return id, nil
}

// ClaimWork hands the oldest available job of stage to workerID.
// The select and the update are one statement, so two workers never get the same job.
// It returns nil when the stage has nothing ready.
func (s *SQLiteStore) ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error) {
	now := formatTime(time.Now())
	query := `
		UPDATE work
		SET status = 'running',
		    locked_by = ?,
		    locked_at = ?,
		    started_at = COALESCE(started_at, ?),
		    attempt = attempt + 1
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ?
			  AND status = 'queued'
			  AND available_at <= ?
			ORDER BY available_at, id
			LIMIT 1
		)
		RETURNING ` + workColumns

	work, err := scanWork(s.db.QueryRowContext(ctx, query, workerID, now, now, stage, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "claim work")
	}
	return work, nil
}

// FinishWork releases a running job as ok or failed. Empty error fields are stored as NULL.
func (s *SQLiteStore) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = ?,
		    finished_at = ?,
		    error_code = ?,
		    error_message = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		status,
		formatTime(time.Now()),
		nullString(errorCode),
		nullString(errorMsg),
		id,
	)
	if err != nil {
		return errors.Wrap(err, "finish work")
	}
	return nil
}

// ResetFailedWork puts every failed job of stage back in the queue and reports how many moved.
func (s *SQLiteStore) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	const query = `
		UPDATE work
		SET status = 'queued',
		    available_at = ?,
		    locked_by = NULL,
		    locked_at = NULL,
		    finished_at = NULL,
		    error_code = NULL,
		    error_message = NULL
		WHERE stage = ?
		  AND status = 'failed'
	`
	result, err := s.db.ExecContext(ctx, query, formatTime(time.Now()), stage)
	if err != nil {
		return 0, errors.Wrap(err, "reset failed work")
	}
	moved, err := result.RowsAffected()
	return int(moved), errors.Wrap(err, "reset failed work")
}

// GetFailedWork lists the failed jobs of stage, oldest first.
func (s *SQLiteStore) GetFailedWork(ctx context.Context, stage string) ([]model.Work, error) {
	query := `
		SELECT ` + workColumns + `
		FROM work
		WHERE stage = ?
		  AND status = 'failed'
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, stage)
	if err != nil {
		return nil, errors.Wrap(err, "get failed work")
	}
	defer rows.Close()

	var failed []model.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan work")
		}
		failed = append(failed, *work)
	}
	return failed, rows.Err()
}

// GetWorkSummary counts jobs, indexed by stage and then status.
func (s *SQLiteStore) GetWorkSummary(ctx context.Context) (map[string]map[string]int, error) {
	const query = `
		SELECT stage, status, COUNT(*)
		FROM work
		GROUP BY stage, status
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "get work summary")
	}
	defer rows.Close()

	summary := map[string]map[string]int{}
	for rows.Next() {
		var stage, status string
		var n int
		if err := rows.Scan(&stage, &status, &n); err != nil {
			return nil, errors.Wrap(err, "scan work summary")
		}
		if summary[stage] == nil {
			summary[stage] = map[string]int{}
		}
		summary[stage][status] = n
	}
	return summary, rows.Err()
}

// scanWork reads one row selected with workColumns.
func scanWork(row scanner) (*model.Work, error) {
	var w model.Work
	var availableAt, lockedBy, lockedAt, startedAt, finishedAt, errorCode, errorMessage sql.NullString
	if err := row.Scan(
		&w.ID, &w.SampleID, &w.Stage, &w.Status, &w.Attempt, &availableAt,
		&lockedBy, &lockedAt, &startedAt, &finishedAt, &errorCode, &errorMessage,
	); err != nil {
		return nil, err
	}
	w.AvailableAt = parseTime(availableAt.String)
	w.LockedBy = nullStringPtr(lockedBy)
	w.LockedAt = parseTimePtr(lockedAt)
	w.StartedAt = parseTimePtr(startedAt)
	w.FinishedAt = parseTimePtr(finishedAt)
	w.ErrorCode = nullStringPtr(errorCode)
	w.ErrorMessage = nullStringPtr(errorMessage)
	return &w, nil
}
