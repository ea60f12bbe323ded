package main

import (
	"fmt"

	"github.com/GrimEthos/backwater/internal/git"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment for common issues",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	r := ui.NewReporter(out)
	ok := true

	_, _ = fmt.Fprint(out, "Checking git... ")
	if git.IsInstalled() {
		v, err := git.Version(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintln(out, "ERROR")
			r.Warn("  %v", err)
			ok = false
		} else {
			_, _ = fmt.Fprintln(out, v)
		}
	} else {
		_, _ = fmt.Fprintln(out, "NOT FOUND")
		r.Warn("  git is required. Install it from https://git-scm.com/")
		ok = false
	}

	_, _ = fmt.Fprint(out, "Checking manifest... ")
	wctx, mode, err := loadWorkspace(cmd)
	if err != nil {
		_, _ = fmt.Fprintln(out, "INVALID")
		r.Warn("  %v", err)
		return fmt.Errorf("doctor checks failed")
	}
	if wctx.ManifestPath == "" {
		_, _ = fmt.Fprintf(out, "built-in (%d deps, presence=%s)\n", len(wctx.Manifest.Deps), mode)
	} else {
		_, _ = fmt.Fprintf(out, "%s (%d deps, presence=%s)\n", wctx.ManifestPath, len(wctx.Manifest.Deps), mode)
	}

	_, _ = fmt.Fprint(out, "Checking deps directory... ")
	if wctx.DepsDirExists() {
		_, _ = fmt.Fprintln(out, wctx.DepsDir)
	} else {
		_, _ = fmt.Fprintln(out, "NOT FOUND")
		r.Warn("  %s does not exist; run `fetchdeps init` or create it", wctx.DepsDir)
		ok = false
	}

	if ok {
		_, _ = fmt.Fprintln(out, "\nAll checks passed.")
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nSome checks failed. See above for details.")
	return fmt.Errorf("doctor checks failed")
}
