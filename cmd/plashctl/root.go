// plashctl is the operator CLI for plashboardd: template CRUD, activation,
// run-now, status, and display-profile tuning against a data directory that
// may or may not currently have a daemon attached to it.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D4FF")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plashctl",
		Short:         "Operate a plashboard data directory: templates, activation, runs, and display profile.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().String("config", "", "path to plash.yaml (defaults to PLASH_CONFIG, then ./plash.yaml)")
	cmd.PersistentFlags().String("data-dir", "", "override the configured data_dir")

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newRunNowCmd())
	cmd.AddCommand(newRunsCmd())
	cmd.AddCommand(newDisplayProfileCmd())
	return cmd
}
