package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/plashboard/internal/runtime"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active template, run counts, and in-flight templates.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			res := a.rt.Status(cmd.Context())
			if !res.OK {
				return fmt.Errorf("%s", strings.Join(res.Errors, "; "))
			}
			snap := res.Data.(runtime.StatusSnapshot)
			printStatus(snap)
			return nil
		},
	}
}

func printStatus(snap runtime.StatusSnapshot) {
	active := dimStyle.Render("(none)")
	if snap.ActiveTemplateID != nil {
		active = okStyle.Render(*snap.ActiveTemplateID)
	}
	fmt.Printf("%s %s\n", headStyle.Render("active template:"), active)
	fmt.Printf("%s %d (%d enabled)\n", headStyle.Render("templates:"), snap.TemplateCount, snap.EnabledCount)

	if len(snap.InFlight) == 0 {
		fmt.Printf("%s %s\n", headStyle.Render("in flight:"), dimStyle.Render("none"))
	} else {
		fmt.Printf("%s %s\n", headStyle.Render("in flight:"), strings.Join(snap.InFlight, ", "))
	}

	if snap.State == nil {
		return
	}
	t := newTable(os.Stdout)
	t.SetHeaders("TEMPLATE", "LAST STATUS", "LAST ATTEMPT", "LAST SUCCESS", "LAST ERROR")
	ids := make([]string, 0, len(snap.State.TemplateRuns))
	for id := range snap.State.TemplateRuns {
		ids = append(ids, id)
	}
	sortStrings(ids)
	for _, id := range ids {
		rs := snap.State.TemplateRuns[id]
		t.AddRow(id, string(rs.LastStatus), rs.LastAttemptAt, rs.LastSuccessAt, rs.LastError)
	}
	t.Render()
}
