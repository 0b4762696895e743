// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainsacb computes realized capital gains per tax year using the
// adjusted cost base (ACB) method.
//
// The ledger keeps a running quantity and amount per symbol. A sell realizes
// a gain against the average cost of the position held immediately before
// the sale, and the gain is bucketed by the calendar year of the sale's
// settlement date, taken in the settlement date's own offset.
package qtgainsacb

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bufdev/qtgains/internal/qtgains/qtgainstrade"
	"github.com/shopspring/decimal"
)

// ErrMalformedDate is returned when a sell's settlement date cannot be parsed.
var ErrMalformedDate = errors.New("malformed settlement date")

// closedPositionThreshold is the quantity below which a position is treated
// as closed and its amount is reset to zero.
var closedPositionThreshold = decimal.NewFromInt(1)

// SkipReason describes why the ledger ignored a record.
type SkipReason int

const (
	// SkipReasonZeroQuantity indicates the record itself had a zero quantity.
	SkipReasonZeroQuantity SkipReason = iota + 1
	// SkipReasonSellWithoutPosition indicates a sell for a symbol with no
	// tracked position, usually a duplicate or out-of-order record from the API.
	SkipReasonSellWithoutPosition
)

// String returns a snake_case name for the reason, suitable for log attributes.
func (r SkipReason) String() string {
	switch r {
	case SkipReasonZeroQuantity:
		return "zero_quantity"
	case SkipReasonSellWithoutPosition:
		return "sell_without_position"
	default:
		return "unknown"
	}
}

// AcbState is the running state of a single symbol.
//
// The zero value is the state of a symbol that has never been traded.
type AcbState struct {
	// Quantity is the number of units currently held.
	Quantity decimal.Decimal
	// Amount is the accumulated cost base of the units currently held.
	Amount decimal.Decimal
}

// GainsByYear maps a 4-digit tax year to the gain realized in that year.
type GainsByYear map[string]decimal.Decimal

// Get returns the gain for the year, or zero if nothing was realized.
func (g GainsByYear) Get(year string) decimal.Decimal {
	return g[year]
}

// Years returns the years with realized gains in ascending order.
func (g GainsByYear) Years() []string {
	years := make([]string, 0, len(g))
	for year := range g {
		years = append(years, year)
	}
	sort.Strings(years)
	return years
}

// SkippedRecord records a trade the ledger ignored.
type SkippedRecord struct {
	// Symbol is the symbol of the skipped record.
	Symbol string
	// Action is the action of the skipped record.
	Action qtgainstrade.Action
	// SettlementDate is the settlement date of the skipped record, as reported.
	SettlementDate string
	// Reason is why the record was skipped.
	Reason SkipReason
}

// Result is the output of Compute.
type Result struct {
	// Gains is the realized gain per tax year.
	Gains GainsByYear
	// Positions is the final state of every symbol seen.
	Positions map[string]AcbState
	// SkippedRecords lists anomalous records that had no effect.
	// Callers typically log these as warnings.
	SkippedRecords []SkippedRecord
}

// Compute runs the ledger over records in the given order.
//
// Records must be in non-decreasing settlement order. Any record that is
// neither a buy nor a sell is ignored. A malformed settlement date on a sell
// aborts the computation and no partial result is returned.
//
// Compute holds no state between calls.
func Compute(records []qtgainstrade.TradeRecord) (*Result, error) {
	l := newLedger()
	for i, record := range records {
		if err := l.apply(record); err != nil {
			return nil, fmt.Errorf("record %d (%s %s): %w", i, record.Action, record.Symbol, err)
		}
	}
	return &Result{
		Gains:          l.gains,
		Positions:      l.positions,
		SkippedRecords: l.skipped,
	}, nil
}

// TaxYear returns the calendar year of an RFC3339 settlement date in the
// date's own offset.
func TaxYear(settlementDate string) (string, error) {
	t, err := time.Parse(time.RFC3339, settlementDate)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrMalformedDate, settlementDate, err)
	}
	return strconv.Itoa(t.Year()), nil
}

// *** PRIVATE ***

type ledger struct {
	positions map[string]AcbState
	gains     GainsByYear
	skipped   []SkippedRecord
}

func newLedger() *ledger {
	return &ledger{
		positions: make(map[string]AcbState),
		gains:     make(GainsByYear),
	}
}

func (l *ledger) apply(record qtgainstrade.TradeRecord) error {
	if !record.Action.IsTrade() {
		return nil
	}
	// A zero quantity would divide by zero below and carries no position change.
	if record.Quantity.IsZero() {
		l.skip(record, SkipReasonZeroQuantity)
		return nil
	}
	// Not inserted until the update at the end of this step.
	state := l.positions[record.Symbol]
	if record.Action == qtgainstrade.ActionSell {
		if state.Quantity.IsZero() {
			l.skip(record, SkipReasonSellWithoutPosition)
			return nil
		}
		// Cost per unit of the position held before this sale.
		acbPerUnit := state.Amount.Div(state.Quantity)
		gain := record.Quantity.Mul(acbPerUnit.Add(record.NetAmount.Div(record.Quantity)))
		year, err := TaxYear(record.SettlementDate)
		if err != nil {
			return err
		}
		l.gains[year] = l.gains[year].Add(gain)
	}
	newQuantity := state.Quantity.Add(record.Quantity)
	newAmount := decimal.Zero
	if !newQuantity.LessThan(closedPositionThreshold) {
		newAmount = state.Amount.Add(record.NetAmount)
	}
	l.positions[record.Symbol] = AcbState{
		Quantity: newQuantity,
		Amount:   newAmount,
	}
	return nil
}

func (l *ledger) skip(record qtgainstrade.TradeRecord, reason SkipReason) {
	l.skipped = append(l.skipped, SkippedRecord{
		Symbol:         record.Symbol,
		Action:         record.Action,
		SettlementDate: record.SettlementDate,
		Reason:         reason,
	})
}
