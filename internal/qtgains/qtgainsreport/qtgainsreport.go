// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainsreport converts trade records and yearly gains into rows
// for CLI output.
package qtgainsreport

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsacb"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainstrade"
	"github.com/shopspring/decimal"
)

// YearGain is the capital gain for one tax year.
type YearGain struct {
	Year         string `json:"year"`
	Currency     string `json:"currency"`
	CapitalGains string `json:"capital_gains"`
}

// ActivityRecord is a trade record in output form.
type ActivityRecord struct {
	Action         string `json:"action"`
	Symbol         string `json:"symbol"`
	Quantity       string `json:"quantity"`
	NetAmount      string `json:"net_amount"`
	SettlementDate string `json:"settlement_date"`
}

// YearGains returns one YearGain per year in ascending year order, with
// gains rounded to two decimal places.
func YearGains(gains qtgainsacb.GainsByYear, currencyCode string) []YearGain {
	years := gains.Years()
	yearGains := make([]YearGain, 0, len(years))
	for _, year := range years {
		yearGains = append(yearGains, YearGain{
			Year:         year,
			Currency:     currencyCode,
			CapitalGains: gains.Get(year).StringFixed(2),
		})
	}
	return yearGains
}

// YearGainText returns the single-line text form of a YearGain.
func YearGainText(yearGain YearGain) string {
	return fmt.Sprintf("Year=%s; Capital Gains=%s %s", yearGain.Year, yearGain.Currency, yearGain.CapitalGains)
}

// YearGainsHeaders returns the column headers for yearly gains.
func YearGainsHeaders() []string {
	return []string{"YEAR", "CURRENCY", "CAPITAL GAINS"}
}

// YearGainToRow returns a YearGain as a CSV row.
func YearGainToRow(yearGain YearGain) []string {
	return []string{yearGain.Year, yearGain.Currency, yearGain.CapitalGains}
}

// YearGainToTableRow returns a YearGain as a table row with the gain
// formatted in its currency.
func YearGainToTableRow(yearGain YearGain) []string {
	return []string{yearGain.Year, yearGain.Currency, DisplayAmount(decimal.RequireFromString(yearGain.CapitalGains), yearGain.Currency)}
}

// TotalGains sums all yearly gains.
func TotalGains(gains qtgainsacb.GainsByYear) decimal.Decimal {
	total := decimal.Zero
	for _, gain := range gains {
		total = total.Add(gain)
	}
	return total
}

// DisplayAmount formats amount in the currency's display form, for example
// "$1,100.00" for CAD. Amounts are rounded to the currency's minor unit.
func DisplayAmount(amount decimal.Decimal, currencyCode string) string {
	fraction := 2
	if currency := money.GetCurrency(currencyCode); currency != nil {
		fraction = currency.Fraction
	}
	minorUnits := amount.Round(int32(fraction)).Shift(int32(fraction)).IntPart()
	return money.New(minorUnits, currencyCode).Display()
}

// ActivityRecords converts trade records to their output form in order.
func ActivityRecords(records []qtgainstrade.TradeRecord) []ActivityRecord {
	activityRecords := make([]ActivityRecord, 0, len(records))
	for _, record := range records {
		activityRecords = append(activityRecords, ActivityRecord{
			Action:         record.Action.String(),
			Symbol:         record.Symbol,
			Quantity:       record.Quantity.String(),
			NetAmount:      record.NetAmount.String(),
			SettlementDate: record.SettlementDate,
		})
	}
	return activityRecords
}

// ActivityRecordsHeaders returns the column headers for activity records.
func ActivityRecordsHeaders() []string {
	return []string{"SETTLEMENT DATE", "ACTION", "SYMBOL", "QUANTITY", "NET AMOUNT"}
}

// ActivityRecordToRow returns an ActivityRecord as a row.
func ActivityRecordToRow(record ActivityRecord) []string {
	return []string{record.SettlementDate, record.Action, record.Symbol, record.Quantity, record.NetAmount}
}

// ActivityRecordText returns the single-line text form of an ActivityRecord.
func ActivityRecordText(record ActivityRecord) string {
	return fmt.Sprintf("%s %s %s %s %s", record.SettlementDate, record.Action, record.Symbol, record.Quantity, record.NetAmount)
}
