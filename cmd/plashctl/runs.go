package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs <template-id>",
		Short: "List the most recent run artifacts for a template, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			artifacts, err := a.runs.Latest(args[0], limit)
			if err != nil {
				return err
			}

			t := newTable(os.Stdout)
			t.SetHeaders("STARTED", "TRIGGER", "STATUS", "ATTEMPTS", "PUBLISHED", "DURATION_MS", "ERRORS")
			for _, r := range artifacts {
				t.AddRow(r.StartedAt, string(r.Trigger), string(r.Status),
					strconv.Itoa(r.AttemptCount), strconv.FormatBool(r.Published),
					strconv.FormatInt(r.DurationMs, 10), strconv.Itoa(len(r.Errors)))
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of run artifacts to show")
	return cmd
}
