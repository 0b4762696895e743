// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gains implements the "gains" command.
package gains

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/qtgainscmd"
	"github.com/bufdev/qtgains/internal/pkg/cliio"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsacb"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsconfig"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsreport"
	"github.com/spf13/pflag"
)

const (
	formatFlagName = "format"
	cachedFlagName = "cached"
)

// NewCommand returns a new gains command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display realized capital gains by tax year",
		Long: `Fetch Buy and Sell activities and compute realized capital gains by tax year.

Gains are computed with the adjusted cost base (average cost) method per
symbol, and each sale is attributed to the year of its settlement date.`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the base directory containing qtgains.yaml, data, and cache.
	Dir string
	// Format is the output format (text, table, csv, json).
	Format string
	// Cached skips fetching and uses the latest cached run.
	Cached bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, qtgainscmd.DirFlagName, ".", "The qtgains directory containing qtgains.yaml")
	flagSet.StringVar(&f.Format, formatFlagName, "text", "Output format (text, table, csv, json)")
	flagSet.BoolVar(&f.Cached, cachedFlagName, false, "Skip fetching and use the latest cached activities")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := qtgainsconfig.ReadConfig(flags.Dir)
	if err != nil {
		return err
	}
	records, err := qtgainscmd.LoadTradeRecords(ctx, container, config, flags.Cached)
	if err != nil {
		return err
	}
	result, err := qtgainsacb.Compute(records)
	if err != nil {
		return err
	}
	logger := container.Logger()
	for _, skipped := range result.SkippedRecords {
		logger.Warn("skipped trade record",
			"symbol", skipped.Symbol,
			"action", skipped.Action.String(),
			"settlement_date", skipped.SettlementDate,
			"reason", skipped.Reason.String(),
		)
	}
	yearGains := qtgainsreport.YearGains(result.Gains, config.CurrencyCode)
	writer := container.Stdout()
	switch format {
	case cliio.FormatText:
		lines := make([]string, 0, len(yearGains))
		for _, yearGain := range yearGains {
			lines = append(lines, qtgainsreport.YearGainText(yearGain))
		}
		return cliio.WriteLines(writer, lines)
	case cliio.FormatTable:
		headers := qtgainsreport.YearGainsHeaders()
		rows := make([][]string, 0, len(yearGains))
		for _, yearGain := range yearGains {
			rows = append(rows, qtgainsreport.YearGainToTableRow(yearGain))
		}
		totalsRow := make([]string, len(headers))
		totalsRow[0] = "TOTAL"
		totalsRow[1] = config.CurrencyCode
		totalsRow[2] = qtgainsreport.DisplayAmount(qtgainsreport.TotalGains(result.Gains), config.CurrencyCode)
		return cliio.WriteTableWithTotals(writer, headers, rows, totalsRow)
	case cliio.FormatCSV:
		csvRecords := make([][]string, 0, len(yearGains)+1)
		csvRecords = append(csvRecords, qtgainsreport.YearGainsHeaders())
		for _, yearGain := range yearGains {
			csvRecords = append(csvRecords, qtgainsreport.YearGainToRow(yearGain))
		}
		return cliio.WriteCSVRecords(writer, csvRecords)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, yearGains...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
