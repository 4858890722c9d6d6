package main

import (
	"github.com/spf13/cobra"
)

func newRunNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-now <id>",
		Short: "Trigger an immediate manual run, bypassing the schedule's due-time gate.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.withLock(func() error {
				res := a.rt.RunNow(cmd.Context(), args[0])
				return printResult(res)
			})
		},
	}
}
