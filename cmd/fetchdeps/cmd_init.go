package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a deps.yaml with the built-in dependencies and create the deps directory",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing manifest")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	depsDir, _ := cmd.Flags().GetString("deps")
	presence, _ := cmd.Flags().GetString("presence")
	force, _ := cmd.Flags().GetBool("force")

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	if manifestPath == "" {
		manifestPath = filepath.Join(root, workspace.ManifestFile)
	}
	if _, err := os.Stat(manifestPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", manifestPath)
	}

	m := manifest.Default()
	if depsDir != "" {
		m.DepsDir = depsDir
	}
	if presence != "" {
		mode, err := workspace.ParsePresenceMode(presence)
		if err != nil {
			return fmt.Errorf("--presence: %w", err)
		}
		m.Presence = string(mode)
	}

	// Validate before touching the filesystem so a bad --deps leaves nothing behind.
	if err := manifest.Validate(m); err != nil {
		return err
	}
	resolved, err := workspace.ResolveDepsDir(root, m.EffectiveDepsDir())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, 0755); err != nil { //nolint:gosec // deps dir needs to be world-readable
		return fmt.Errorf("creating deps directory: %w", err)
	}
	if err := manifest.Save(manifestPath, m); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Wrote %s\n", manifestPath)
	_, _ = fmt.Fprintf(out, "Deps directory: %s\n", resolved)
	return nil
}
