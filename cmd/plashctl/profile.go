package main

import (
	"github.com/spf13/cobra"

	"github.com/openclaw/plashboard/internal/runtime"
)

func newDisplayProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect or update the display profile passed to the layout writer.",
	}
	cmd.AddCommand(newDisplayProfileSetCmd())
	return cmd
}

func newDisplayProfileSetCmd() *cobra.Command {
	var width, height, safeTop, safeBottom, safeSide, margin int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Partially update the display profile; unset flags leave their field unchanged.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			patch := runtime.DisplayProfilePatch{}
			if flags.Changed("width-px") {
				patch.WidthPx = &width
			}
			if flags.Changed("height-px") {
				patch.HeightPx = &height
			}
			if flags.Changed("safe-top-px") {
				patch.SafeTopPx = &safeTop
			}
			if flags.Changed("safe-bottom-px") {
				patch.SafeBottomPx = &safeBottom
			}
			if flags.Changed("safe-side-px") {
				patch.SafeSidePx = &safeSide
			}
			if flags.Changed("layout-safety-margin-px") {
				patch.LayoutSafetyMarginPx = &margin
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.withLock(func() error {
				res := a.rt.DisplayProfileSet(cmd.Context(), patch)
				return printResult(res)
			})
		},
	}

	cmd.Flags().IntVar(&width, "width-px", 0, "viewport width in pixels (min 320)")
	cmd.Flags().IntVar(&height, "height-px", 0, "viewport height in pixels (min 240)")
	cmd.Flags().IntVar(&safeTop, "safe-top-px", 0, "top safe-area inset in pixels")
	cmd.Flags().IntVar(&safeBottom, "safe-bottom-px", 0, "bottom safe-area inset in pixels")
	cmd.Flags().IntVar(&safeSide, "safe-side-px", 0, "side safe-area inset in pixels")
	cmd.Flags().IntVar(&margin, "layout-safety-margin-px", 0, "extra layout safety margin in pixels")

	return cmd
}
