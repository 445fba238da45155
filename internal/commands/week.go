package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"weekcal/internal/civil"
	"weekcal/internal/layout"
	"weekcal/internal/printer"
	"weekcal/internal/week"
)

func addWeek(topLevel *cobra.Command) {
	var (
		date      string
		assignees []string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the layout of one week.",
		Example: `
weekcal week
weekcal week --date 2025-10-16 --assignee ana
weekcal week -o json
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			ref := a.engine.Time()
			if date != "" {
				d, err := civil.ParseDate(date)
				if err != nil {
					return err
				}
				ref = a.clock.Midnight(d)
			}

			w := week.Compute(a.clock, ref, a.engine.Time())
			tasks, err := a.src.ListTasks(context.Background(), w.Start, w.End)
			if err != nil {
				return err
			}
			out := a.engine.Compute(layout.Input{
				Tasks:             tasks,
				Reference:         ref,
				SelectedAssignees: assignees,
				Users:             a.cfg.Users,
			})

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "table", "":
				return printer.Week(color.Output, out)
			default:
				return fmt.Errorf("unknown output %q, want table or json", output)
			}
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Any date inside the week, YYYY-MM-DD (default today).")
	cmd.Flags().StringSliceVarP(&assignees, "assignee", "a", nil, "Only show tasks of these assignee ids.")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format. One of 'table' or 'json'.")
	topLevel.AddCommand(cmd)
}
