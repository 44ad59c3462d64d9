package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/services/planner"
	"github.com/benvon/calendar-todo/internal/validation"
)

// dueResult is the JSON shape of the due command
type dueResult struct {
	Date        string        `json:"date"`
	MarkerColor string        `json:"marker_color"`
	Tasks       []models.Task `json:"tasks"`
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due <date>",
		Short: "List the tasks due on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			if err := validation.ValidateDate(date); err != nil {
				return err
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				tasks := p.TasksOnDate(date)
				out := newPrinter(cmd, opts)
				if out.json {
					return out.encode(dueResult{Date: date, MarkerColor: planner.MarkerColorFor(tasks), Tasks: tasks})
				}
				if len(tasks) > 0 {
					fmt.Fprintf(out.w, "%s %s\n", swatch(planner.MarkerColorFor(tasks)), headerStyle.Render(date))
				}
				return out.tasks(tasks)
			})
		},
	}
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var selected string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show which dates have tasks",
		Long:  "Show every date holding at least one task, colored by completion, plus the --selected date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selected != "" {
				if err := validation.ValidateDate(selected); err != nil {
					return err
				}
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				marks := p.CalendarMarks(selected)
				out := newPrinter(cmd, opts)
				if out.json {
					return out.encode(marks)
				}
				if len(marks) == 0 {
					_, err := fmt.Fprintln(out.w, mutedStyle.Render("No dates with tasks"))
					return err
				}

				dates := make([]string, 0, len(marks))
				for date := range marks {
					dates = append(dates, date)
				}
				sort.Strings(dates)
				for _, date := range dates {
					mark := marks[date]
					line := "  " + date
					if mark.Marked {
						line = swatch(mark.DotColor) + " " + date
					}
					if mark.Selected {
						line += " " + swatch(mark.SelectedColor) + " selected"
					}
					fmt.Fprintln(out.w, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&selected, "selected", "", "Date to highlight (YYYY-MM-DD)")
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair the deadline index",
		Long:  "Drop index entries for missing tasks, keep each task in its earliest date and drop empty dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				// Open would repair silently, so load without reconciling
				p := planner.New(e.store, e.plannerOptions()...)
				if err := p.Reload(ctx); err != nil {
					return fmt.Errorf("failed to load tasks: %w", err)
				}
				report, err := p.Reconcile(ctx)
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(report,
					"Index reconciled: %d orphans, %d duplicates, %d empty dates removed",
					report.OrphansRemoved, report.DuplicatesRemoved, report.EmptyBucketsRemoved)
			})
		},
	}
}
