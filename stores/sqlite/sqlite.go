// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// memoryDBs numbers in-memory databases so that stores never share one.
var memoryDBs atomic.Int64

// SQLiteStore keeps batches, samples, translations and the work queue.
type SQLiteStore struct {
	db *sql.DB
}

var _ model.Store = (*SQLiteStore)(nil)

type StoreConfig struct {
	// Path names the database file. Leave it empty for a private
	// in-memory database that disappears on Close.
	Path string

	// InitSchema applies schema.sql on open. In-memory stores always get it;
	// files normally get it once, from InitDatabase.
	InitSchema bool
}

// NewSQLiteStore returns an empty in-memory store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(StoreConfig{InitSchema: true})
}

// NewSQLiteStoreWithConfig opens the store described by cfg.
// A file store must already exist; InitDatabase creates one.
func NewSQLiteStoreWithConfig(cfg StoreConfig) (*SQLiteStore, error) {
	inMemory := cfg.Path == ""
	dsn := memoryDSN()
	if !inMemory {
		if !exists(cfg.Path) {
			// sql.Open would quietly create an empty file
			return nil, errors.WithHint(
				errors.Newf("%s: no such database", cfg.Path),
				"run `turkpy db init` to create it")
		}
		dsn = fileDSN(cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dsn)
	}
	if inMemory {
		// shared cache locks at table level, so more than one connection hits SQLITE_LOCKED
		db.SetMaxOpenConns(1)
	}
	if inMemory || cfg.InitSchema {
		if _, err := db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "apply schema")
		}
	}
	return &SQLiteStore{db: db}, nil
}

// memoryDSN names a fresh shared-cache database so pooled connections agree on its contents.
func memoryDSN() string {
	return fmt.Sprintf("file:turkpy-%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", memoryDBs.Add(1))
}

// fileDSN carries the pragmas in the DSN; modernc runs every _pragma on each new connection.
func fileDSN(path string) string {
	return "file:" + path + "?" + strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=foreign_keys(ON)",
		"_pragma=busy_timeout(5000)",
	}, "&")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// InitDatabase creates the database file at path and applies the schema.
// It fails if path already exists.
func InitDatabase(path string) error {
	if exists(path) {
		return errors.WithHint(errors.Newf("%s: database exists", path), "remove it first to start over")
	}
	db, err := sql.Open("sqlite", fileDSN(path))
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// CompactDatabase folds the write-ahead log into the file at path and vacuums it.
func CompactDatabase(path string) error {
	if !exists(path) {
		return errors.Newf("%s: no such database", path)
	}
	db, err := sql.Open("sqlite", fileDSN(path))
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()
	for _, stmt := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "VACUUM"} {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, stmt)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats returns row counts for the main tables.
func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	const query = `
		SELECT (SELECT COUNT(*) FROM batches),
		       (SELECT COUNT(*) FROM samples),
		       (SELECT COUNT(*) FROM translations),
		       (SELECT COUNT(*) FROM translations WHERE status = 'verified')
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(&st.Batches, &st.Samples, &st.Translations, &st.Verified); err != nil {
		return st, errors.Wrap(err, "stats")
	}
	return st, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, ns.String); err == nil {
		return &t
	}
	return nil
}
