// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configvalidate implements the "config validate" command.
package configvalidate

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/qtgainscmd"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsconfig"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config validate command that validates a configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Validate the configuration file",
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
	// Dir is the qtgains directory containing qtgains.yaml.
	Dir string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, qtgainscmd.DirFlagName, ".", "The qtgains directory containing qtgains.yaml")
}

func run(_ context.Context, _ appext.Container, flags *flags) error {
	if flags.Dir == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", qtgainscmd.DirFlagName)
	}
	return qtgainsconfig.ValidateConfig(flags.Dir)
}
