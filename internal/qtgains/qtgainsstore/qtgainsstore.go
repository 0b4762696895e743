// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainsstore caches fetched trade records in a sqlite database so
// gains can be recomputed without calling the Questrade API again.
//
// Every successful fetch is saved as a run, identified by a ULID. Runs are
// never merged: loading returns the records of the newest run for an account,
// in the order they were fetched.
package qtgainsstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bufdev/qtgains/internal/qtgains/qtgainstrade"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// ErrNoRun is returned by LoadLatest when no run has been saved for the account.
var ErrNoRun = errors.New("no cached activities")

// schema creates the tables on first open.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	start_time TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	record_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_records (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity TEXT NOT NULL,
	net_amount TEXT NOT NULL,
	settlement_date TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_account_id ON runs(account_id, run_id);
`

// Run describes a saved fetch.
type Run struct {
	// RunID is the ULID of the run. ULIDs sort by creation time.
	RunID string
	// AccountID is the account the records belong to.
	AccountID string
	// StartTime is the start time the fetch was made from.
	StartTime string
	// FetchedAt is when the run was saved.
	FetchedAt time.Time
	// RecordCount is the number of records in the run.
	RecordCount int
}

// Store is a sqlite-backed cache of fetched trade records.
type Store struct {
	db *sql.DB
	// clock is used for run IDs and FetchedAt.
	clock func() time.Time
	// entropyLock protects entropy, which is not safe for concurrent use.
	entropyLock sync.Mutex
	entropy     io.Reader
}

// Open opens or creates the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(fmt.Errorf("creating schema: %w", err), db.Close())
	}
	return &Store{
		db:    db,
		clock: time.Now,
		// Monotonic so runs saved within the same millisecond still sort in order.
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun saves records as a new run for the account and returns the run.
func (s *Store) SaveRun(ctx context.Context, accountID string, startTime string, records []qtgainstrade.TradeRecord) (_ *Run, retErr error) {
	fetchedAt := s.clock().UTC()
	runID, err := s.newRunID(fetchedAt)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			retErr = errors.Join(retErr, tx.Rollback())
		}
	}()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, account_id, start_time, fetched_at, record_count)
		VALUES (?, ?, ?, ?, ?)`,
		runID, accountID, startTime, fetchedAt, len(records),
	); err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_records
		(run_id, seq, action, symbol, quantity, net_amount, settlement_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for i, record := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, i, record.Action.String(), record.Symbol,
			record.Quantity.String(), record.NetAmount.String(), record.SettlementDate,
		); err != nil {
			return nil, fmt.Errorf("inserting record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Run{
		RunID:       runID,
		AccountID:   accountID,
		StartTime:   startTime,
		FetchedAt:   fetchedAt,
		RecordCount: len(records),
	}, nil
}

// LoadLatest returns the newest run for the account and its records in
// fetch order. Returns ErrNoRun if nothing has been saved for the account.
func (s *Store) LoadLatest(ctx context.Context, accountID string) (*Run, []qtgainstrade.TradeRecord, error) {
	var run Run
	if err := s.db.QueryRowContext(ctx, `
		SELECT run_id, account_id, start_time, fetched_at, record_count
		FROM runs
		WHERE account_id = ?
		ORDER BY run_id DESC
		LIMIT 1`,
		accountID,
	).Scan(&run.RunID, &run.AccountID, &run.StartTime, &run.FetchedAt, &run.RecordCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w for account %s, run without --cached first", ErrNoRun, accountID)
		}
		return nil, nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, symbol, quantity, net_amount, settlement_date
		FROM trade_records
		WHERE run_id = ?
		ORDER BY seq`,
		run.RunID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	records := make([]qtgainstrade.TradeRecord, 0, run.RecordCount)
	for rows.Next() {
		var (
			action    string
			record    qtgainstrade.TradeRecord
			quantity  string
			netAmount string
		)
		if err := rows.Scan(&action, &record.Symbol, &quantity, &netAmount, &record.SettlementDate); err != nil {
			return nil, nil, err
		}
		record.Action = qtgainstrade.ParseAction(action)
		if record.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, nil, fmt.Errorf("parsing cached quantity %q: %w", quantity, err)
		}
		if record.NetAmount, err = decimal.NewFromString(netAmount); err != nil {
			return nil, nil, fmt.Errorf("parsing cached net amount %q: %w", netAmount, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &run, records, nil
}

func (s *Store) newRunID(t time.Time) (string, error) {
	s.entropyLock.Lock()
	defer s.entropyLock.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return "", fmt.Errorf("generating run ID: %w", err)
	}
	return id.String(), nil
}
