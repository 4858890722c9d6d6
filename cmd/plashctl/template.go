package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/openclaw/plashboard/internal/runtime"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage dashboard templates.",
	}
	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateGetCmd())
	cmd.AddCommand(newTemplateCreateCmd())
	cmd.AddCommand(newTemplateDeleteCmd())
	cmd.AddCommand(newTemplateActivateCmd())
	cmd.AddCommand(newTemplateCopyCmd())
	return cmd
}

func newTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all templates, sorted by id.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			templates, err := a.templates.List()
			if err != nil {
				return err
			}
			st, err := a.states.Load()
			if err != nil {
				return err
			}

			t := newTable(os.Stdout)
			t.SetHeaders("ID", "NAME", "ENABLED", "ACTIVE", "EVERY_MIN", "FIELDS")
			for _, tpl := range templates {
				active := ""
				if st.ActiveTemplateID != nil && *st.ActiveTemplateID == tpl.ID {
					active = "*"
				}
				t.AddRow(tpl.ID, tpl.Name, strconv.FormatBool(tpl.Enabled), active,
					strconv.Itoa(tpl.Schedule.EveryMinutes), strconv.Itoa(len(tpl.Fields)))
			}
			t.Render()
			return nil
		},
	}
}

func newTemplateGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a template's full JSON document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			tpl, err := a.templates.Get(args[0])
			if err != nil {
				return err
			}
			if tpl == nil {
				return fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, args[0])
			}
			return printJSON(tpl)
		},
	}
}

func newTemplateCreateCmd() *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template from a JSON document (shape, pointers, and publishability are validated).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromFile == "" {
				return fmt.Errorf("--from-file is required")
			}
			data, err := os.ReadFile(fromFile)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrIO, err)
			}
			var t domain.Template
			if err := json.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("%w: parse %s: %v", domain.ErrTemplateInvalid, fromFile, err)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.withLock(func() error {
				res := a.rt.TemplateCreate(cmd.Context(), &t)
				return printResult(res)
			})
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "path to a template JSON document")
	return cmd
}

func newTemplateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template, reassigning the active template if needed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.withLock(func() error {
				res := a.rt.TemplateDelete(cmd.Context(), args[0])
				return printResult(res)
			})
		},
	}
}

func newTemplateActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Change the active template. Does not trigger a run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.withLock(func() error {
				res := a.rt.TemplateActivate(cmd.Context(), args[0])
				return printResult(res)
			})
		},
	}
}

func newTemplateCopyCmd() *cobra.Command {
	var name string
	var activate bool
	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Deep-clone a template under a new id.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			var namePtr *string
			if name != "" {
				namePtr = &name
			}
			return a.withLock(func() error {
				res := a.rt.TemplateCopy(cmd.Context(), args[0], args[1], namePtr, activate)
				return printResult(res)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", `new template name (default "<src name> Copy")`)
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the copy immediately")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printResult renders a runtime.Result: a one-line ok/fail summary followed
// by its data (if any) as pretty JSON.
func printResult(res runtime.Result) error {
	if !res.OK {
		fmt.Println(errorStyle.Render("FAILED"))
		for _, e := range res.Errors {
			fmt.Println("  -", e)
		}
		return fmt.Errorf("%s", strings.Join(res.Errors, "; "))
	}
	fmt.Println(okStyle.Render("OK"))
	if res.Data != nil {
		return printJSON(res.Data)
	}
	return nil
}
