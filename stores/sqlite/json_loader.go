// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
)

// jsonSample is one entry of a sample seed file.
type jsonSample struct {
	Name    string `json:"name"`
	Request string `json:"request"`
	Code    string `json:"code"`
	Output  string `json:"output"`
}

// LoadSamplesFromJSON reads a JSON array of samples from path and inserts the
// ones not already stored. It returns the IDs of the new samples in file order.
//
// Samples are matched by the SHA-256 of their code, so loading a file twice
// inserts nothing the second time.
func (s *SQLiteStore) LoadSamplesFromJSON(ctx context.Context, path string, batchID *int64) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read samples file")
	}

	var samples []jsonSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, errors.Wrap(err, "parse samples json")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	var ids []int64
	for i, js := range samples {
		if strings.TrimSpace(js.Code) == "" {
			return nil, errors.Newf("sample %d (%q): missing code", i+1, js.Name)
		}
		name := js.Name
		if name == "" {
			name = fmt.Sprintf("sample-%d", i+1)
		}
		var batch any
		if batchID != nil {
			batch = *batchID
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO samples (batch_id, name, sha256, request, source, expected_output, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sha256) DO NOTHING
		`, batch, name, model.HashSource(js.Code), js.Request, js.Code, js.Output, now)
		if err != nil {
			return nil, errors.Wrapf(err, "insert sample %q", name)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			continue
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, errors.Wrapf(err, "get sample id %q", name)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return ids, nil
}
