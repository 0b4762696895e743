// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/command/activities"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/command/config"
	"github.com/bufdev/qtgains/cmd/qtgains/internal/command/gains"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("qtgains"))
}

// newRootCommand creates the root qtgains command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Compute Questrade capital gains by tax year",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			config.NewCommand("config", builder),
			activities.NewCommand("activities", builder),
			gains.NewCommand("gains", builder),
		},
	}
}
