// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package activities implements the "activities" command.
package activities

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/qtgainscmd"
	"github.com/bufdev/qtgains/internal/pkg/cliio"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsconfig"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsreport"
	"github.com/spf13/pflag"
)

const (
	formatFlagName = "format"
	cachedFlagName = "cached"
)

// NewCommand returns a new activities command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List Buy and Sell activities in settlement order",
		Args:  appcmd.NoArgs,
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
	flagSet.StringVar(&f.Format, formatFlagName, "table", "Output format (text, table, csv, json)")
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
	activityRecords := qtgainsreport.ActivityRecords(records)
	writer := container.Stdout()
	switch format {
	case cliio.FormatText:
		lines := make([]string, 0, len(activityRecords))
		for _, activityRecord := range activityRecords {
			lines = append(lines, qtgainsreport.ActivityRecordText(activityRecord))
		}
		return cliio.WriteLines(writer, lines)
	case cliio.FormatTable:
		rows := make([][]string, 0, len(activityRecords))
		for _, activityRecord := range activityRecords {
			rows = append(rows, qtgainsreport.ActivityRecordToRow(activityRecord))
		}
		return cliio.WriteTable(writer, qtgainsreport.ActivityRecordsHeaders(), rows)
	case cliio.FormatCSV:
		csvRecords := make([][]string, 0, len(activityRecords)+1)
		csvRecords = append(csvRecords, qtgainsreport.ActivityRecordsHeaders())
		for _, activityRecord := range activityRecords {
			csvRecords = append(csvRecords, qtgainsreport.ActivityRecordToRow(activityRecord))
		}
		return cliio.WriteCSVRecords(writer, csvRecords)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, activityRecords...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
