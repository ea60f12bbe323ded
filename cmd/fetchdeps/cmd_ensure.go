package main

import (
	"github.com/GrimEthos/backwater/internal/fetcher"
	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/spf13/cobra"
)

func newEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <name> <url>",
		Short: "Clone a single dependency unless a copy is already present",
		Args:  cobra.ExactArgs(2),
		RunE:  runEnsure,
	}
}

func runEnsure(cmd *cobra.Command, args []string) error {
	wctx, mode, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	f := fetcher.New(wctx.DepsDir, mode, ui.NewReporter(cmd.OutOrStdout()))
	_, err = f.Ensure(cmd.Context(), manifest.Dependency{Name: args[0], URL: args[1]})
	return err
}
