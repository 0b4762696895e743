// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainsfetch retrieves an account's trades from Questrade by paging
// the activities endpoint in fixed-length time windows.
//
// The activities endpoint rejects ranges longer than about 31 days, so the
// fetcher walks forward from a start time in windows of a fixed number of
// days until it passes the time captured when the fetch began. Only buys and
// sells are kept. Output is in window order, and within a window in the
// order the API returned, which is the order the ACB ledger requires.
package qtgainsfetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bufdev/qtgains/internal/pkg/questrade"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainstrade"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWindowDays is the default window length in days.
	DefaultWindowDays = 30
	// MaxWindowDays is the longest window the activities endpoint accepts.
	MaxWindowDays = 31
)

// ErrInvalidTimestamp is returned when the start time cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Window is a half-open time range [Start, End) requested from the API.
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows returns the windows covering [since, now].
//
// The first window starts at since, each window is days long, and each
// window starts where the previous one ended. The last window is not
// clamped to now and may extend past it. Returns nil if since is not
// before now or days is not positive.
func Windows(since time.Time, now time.Time, days int) []Window {
	if days <= 0 {
		return nil
	}
	var windows []Window
	for start := since; start.Before(now); {
		end := start.AddDate(0, 0, days)
		windows = append(windows, Window{Start: start, End: end})
		start = end
	}
	return windows
}

// Fetcher retrieves trade records for an account.
type Fetcher interface {
	// Fetch returns the buys and sells of the account from since until the
	// time the call started.
	//
	// since must be an RFC3339 timestamp, otherwise ErrInvalidTimestamp is
	// returned before any request is made. Any failed window aborts the
	// whole fetch; the returned error wraps questrade.ErrTransport or
	// questrade.ErrDecode and no records are returned.
	Fetch(ctx context.Context, credential questrade.Credential, accountID string, since string) ([]qtgainstrade.TradeRecord, error)
}

// FetcherOption is a functional option for configuring the Fetcher.
type FetcherOption func(*fetcher)

// FetcherWithClock sets the clock used to capture the end of the fetch.
//
// The default is time.Now.
func FetcherWithClock(clock func() time.Time) FetcherOption {
	return func(f *fetcher) {
		f.clock = clock
	}
}

// FetcherWithWindowDays sets the window length in days.
//
// The default is DefaultWindowDays. Values outside [1, MaxWindowDays] are rejected by NewFetcher.
func FetcherWithWindowDays(windowDays int) FetcherOption {
	return func(f *fetcher) {
		f.windowDays = windowDays
	}
}

// FetcherWithParallelism sets how many windows may be requested at once.
//
// The default is 1, which requests windows one at a time. Output order does
// not depend on this value.
func FetcherWithParallelism(parallelism int) FetcherOption {
	return func(f *fetcher) {
		f.parallelism = parallelism
	}
}

// NewFetcher creates a new Fetcher. The logger and client are required.
func NewFetcher(logger *slog.Logger, client questrade.Client, options ...FetcherOption) (Fetcher, error) {
	f := &fetcher{
		logger:      logger,
		client:      client,
		clock:       time.Now,
		windowDays:  DefaultWindowDays,
		parallelism: 1,
	}
	for _, option := range options {
		option(f)
	}
	if f.windowDays < 1 || f.windowDays > MaxWindowDays {
		return nil, fmt.Errorf("window days must be between 1 and %d, got %d", MaxWindowDays, f.windowDays)
	}
	if f.parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got %d", f.parallelism)
	}
	return f, nil
}

// *** PRIVATE ***

type fetcher struct {
	logger      *slog.Logger
	client      questrade.Client
	clock       func() time.Time
	windowDays  int
	parallelism int
}

func (f *fetcher) Fetch(ctx context.Context, credential questrade.Credential, accountID string, since string) ([]qtgainstrade.TradeRecord, error) {
	sinceTime, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidTimestamp, since, err)
	}
	// Captured once so the loop terminates regardless of how long requests take.
	now := f.clock()
	windows := Windows(sinceTime, now, f.windowDays)
	f.logger.Info("fetching activities", "account_id", accountID, "since", since, "windows", len(windows), "parallelism", f.parallelism)
	// Each window writes only its own slot, so pages can be joined in window order.
	pages := make([][]qtgainstrade.TradeRecord, len(windows))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.parallelism)
	for i, window := range windows {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := f.fetchWindow(ctx, credential, accountID, window)
			if err != nil {
				return fmt.Errorf("fetching activities from %s to %s: %w", window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), err)
			}
			pages[i] = records
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var records []qtgainstrade.TradeRecord
	for _, page := range pages {
		records = append(records, page...)
	}
	f.logger.Info("activities fetched", "account_id", accountID, "trades", len(records))
	return records, nil
}

func (f *fetcher) fetchWindow(ctx context.Context, credential questrade.Credential, accountID string, window Window) ([]qtgainstrade.TradeRecord, error) {
	activities, err := f.client.GetActivities(ctx, credential, accountID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	records := activitiesToTradeRecords(activities)
	f.logger.Debug(
		"activities window fetched",
		"start", window.Start,
		"end", window.End,
		"activities", len(activities),
		"trades", len(records),
	)
	return records, nil
}

// activitiesToTradeRecords keeps the buys and sells, in order.
func activitiesToTradeRecords(activities []questrade.Activity) []qtgainstrade.TradeRecord {
	records := make([]qtgainstrade.TradeRecord, 0, len(activities))
	for _, activity := range activities {
		action := qtgainstrade.ParseAction(activity.Action)
		if !action.IsTrade() {
			continue
		}
		records = append(records, qtgainstrade.TradeRecord{
			Action:         action,
			Symbol:         activity.Symbol,
			Quantity:       activity.Quantity,
			NetAmount:      activity.NetAmount,
			SettlementDate: activity.SettlementDate,
		})
	}
	return records
}
