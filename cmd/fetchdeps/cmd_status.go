package main

import (
	"encoding/json"
	"fmt"

	"github.com/GrimEthos/backwater/internal/fetcher"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which dependencies are present in the deps directory",
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type depStatus struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Present  bool   `json:"present"`
	Match    string `json:"match,omitempty"`
	Required bool   `json:"required"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	wctx, _, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	if !wctx.DepsDirExists() {
		return fmt.Errorf("%w: %s", fetcher.ErrDepsDirMissing, wctx.DepsDir)
	}

	statuses := make([]depStatus, 0, len(wctx.Manifest.Deps))
	for _, d := range wctx.Manifest.Deps {
		entry, ok, err := fetcher.Match(wctx.DepsDir, d.Name)
		if err != nil {
			return err
		}
		statuses = append(statuses, depStatus{
			Name:     d.Name,
			URL:      d.URL,
			Present:  ok,
			Match:    entry,
			Required: d.IsRequired(),
		})
	}

	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	tbl := ui.NewTable(out, "NAME", "STATE", "MATCH", "REQUIRED", "URL")
	for _, s := range statuses {
		state := "absent"
		if s.Present {
			state = "present"
		}
		tbl.Row(s.Name, state, s.Match, s.Required, s.URL)
	}
	return tbl.Flush()
}
