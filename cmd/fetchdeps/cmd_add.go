package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Add a dependency to deps.yaml",
		Long: `Add a dependency to deps.yaml, creating the file from the built-in list
when it does not exist yet. Without a URL the dependency is entered
interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAdd,
	}
	cmd.Flags().String("name", "", "Dependency name (default: inferred from the URL)")
	cmd.Flags().Bool("required", false, "Fail the fetch when this dependency cannot be cloned")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	nameOverride, _ := cmd.Flags().GetString("name")
	required, _ := cmd.Flags().GetBool("required")

	wctx, _, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	var dep manifest.Dependency
	if len(args) == 0 {
		if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
			return fmt.Errorf("interactive add requires a TTY; pass a URL")
		}
		dep, err = interactiveAddDependency(cmd.OutOrStdout(), existingNames(wctx.Manifest))
		if err != nil {
			return fmt.Errorf("interactive add: %w", err)
		}
	} else {
		dep, err = buildDependency(args[0], nameOverride, required)
		if err != nil {
			return err
		}
	}

	if err := wctx.Manifest.Add(dep); err != nil {
		return err
	}
	path := wctx.DefaultManifestPath()
	if err := manifest.Save(path, wctx.Manifest); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to %s\n", dep.Name, dep.URL, path)
	return nil
}

// buildDependency creates a descriptor from a URL, inferring the name when
// nameOverride is empty.
func buildDependency(url, nameOverride string, required bool) (manifest.Dependency, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return manifest.Dependency{}, fmt.Errorf("url is required")
	}
	name := strings.TrimSpace(nameOverride)
	if name == "" {
		name = nameFromURL(url)
	}
	if err := manifest.ValidateName(name); err != nil {
		return manifest.Dependency{}, fmt.Errorf("cannot use %q as dependency name: %w (use --name)", name, err)
	}

	dep := manifest.Dependency{Name: name, URL: url}
	if required {
		dep.Required = &required
	}
	return dep, nil
}

func existingNames(m *manifest.Manifest) map[string]bool {
	names := make(map[string]bool, len(m.Deps))
	for _, d := range m.Deps {
		names[d.Name] = true
	}
	return names
}
