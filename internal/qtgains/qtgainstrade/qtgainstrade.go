// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainstrade defines the trade records that flow from the
// activity fetcher into the ACB ledger.
package qtgainstrade

import (
	"github.com/shopspring/decimal"
)

// Action is the kind of account activity.
type Action int

const (
	// ActionOther is any activity that does not affect the adjusted cost base
	// (dividends, deposits, transfers, fees, etc.).
	ActionOther Action = iota
	// ActionBuy is a purchase.
	ActionBuy
	// ActionSell is a disposal.
	ActionSell
)

// ParseAction maps a Questrade action string to an Action.
//
// Matching is case-sensitive: Questrade reports trades as "Buy" and "Sell".
// Every other value maps to ActionOther.
func ParseAction(s string) Action {
	switch s {
	case "Buy":
		return ActionBuy
	case "Sell":
		return ActionSell
	default:
		return ActionOther
	}
}

// String returns the Questrade spelling of the action.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	default:
		return "Other"
	}
}

// IsTrade returns true for Buy and Sell.
func (a Action) IsTrade() bool {
	return a == ActionBuy || a == ActionSell
}

// TradeRecord is one executed trade affecting the adjusted cost base.
//
// Quantity and NetAmount carry the signs reported by Questrade: a Buy has a
// positive quantity and a negative net amount, a Sell has a negative
// quantity and a positive net amount. Nothing downstream rewrites them.
type TradeRecord struct {
	// Action is the trade side.
	Action Action
	// Symbol is the case-sensitive security identifier.
	Symbol string
	// Quantity is the number of units traded.
	Quantity decimal.Decimal
	// NetAmount is the cash amount of the trade net of commissions.
	NetAmount decimal.Decimal
	// SettlementDate is the RFC3339 settlement timestamp, including its offset.
	//
	// It is kept as reported and only parsed when a gain is realized.
	SettlementDate string
}
