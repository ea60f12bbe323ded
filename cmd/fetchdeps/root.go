package main

import (
	"fmt"
	"log/slog"

	"github.com/GrimEthos/backwater/internal/fetcher"
	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetchdeps",
		Short: "Clone missing third-party dependencies into the deps directory",
		Long: `fetchdeps makes sure every configured dependency has a local copy in the
deps directory. A dependency counts as present when any entry of the deps
directory starts with its name; otherwise it is cloned with git.

Without a deps.yaml in --root the built-in list (Box2D) is used.`,
		Version:           version,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE:              runFetch,
	}

	cmd.PersistentFlags().String("root", ".", "Directory containing deps.yaml and the deps directory")
	cmd.PersistentFlags().String("manifest", "", "Path to the manifest (default <root>/deps.yaml)")
	cmd.PersistentFlags().String("deps", "", "Override the deps directory")
	cmd.PersistentFlags().String("presence", "", "Presence check: glob or legacy (default from manifest, else glob)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.Flags().StringSlice("only", nil, "Fetch only these dependencies")
	cmd.Flags().StringSlice("skip", nil, "Skip these dependencies")
	cmd.Flags().Bool("strict", false, "Fail when any dependency cannot be fetched")

	cmd.AddCommand(
		newEnsureCmd(),
		newStatusCmd(),
		newAddCmd(),
		newInitCmd(),
		newDoctorCmd(),
	)

	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func runFetch(cmd *cobra.Command, _ []string) error {
	only, _ := cmd.Flags().GetStringSlice("only")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	strict, _ := cmd.Flags().GetBool("strict")
	verbose, _ := cmd.Flags().GetBool("verbose")

	wctx, mode, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	deps := manifest.FilterByNames(wctx.Manifest.Deps, only, skip)
	r := ui.NewReporter(cmd.OutOrStdout())
	f := fetcher.New(wctx.DepsDir, mode, r)
	s, err := f.Run(cmd.Context(), deps, strict)
	if err != nil {
		return err
	}

	if verbose {
		r.Log("%d fetched, %d present, %d failed", len(s.Fetched), len(s.Present), len(s.Failed))
	}
	return nil
}

// loadWorkspace resolves the workspace from the persistent flags.
func loadWorkspace(cmd *cobra.Command) (*workspace.Context, workspace.PresenceMode, error) {
	root, _ := cmd.Flags().GetString("root")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	depsDir, _ := cmd.Flags().GetString("deps")
	presence, _ := cmd.Flags().GetString("presence")

	wctx, err := workspace.Load(root, manifestPath)
	if err != nil {
		return nil, "", err
	}
	if depsDir != "" {
		if err := wctx.SetDepsDir(depsDir); err != nil {
			return nil, "", err
		}
	}

	if presence == "" {
		presence = wctx.Manifest.Presence
	}
	mode, err := workspace.ParsePresenceMode(presence)
	if err != nil {
		return nil, "", fmt.Errorf("--presence: %w", err)
	}

	slog.Debug("workspace loaded",
		"root", wctx.Root,
		"manifest", wctx.ManifestPath,
		"deps", wctx.DepsDir,
		"presence", mode,
	)
	return wctx, mode, nil
}
