package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/benvon/calendar-todo/internal/services/planner"
)

func newDeadlineCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadline",
		Short: "Set or clear task deadlines",
	}
	cmd.AddCommand(newDeadlineSetCmd(opts))
	cmd.AddCommand(newDeadlineClearCmd(opts))
	return cmd
}

func newDeadlineSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <date>",
		Short: "File a task under a date, replacing any previous deadline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			date := args[1]
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				if err := p.SetTaskDeadline(ctx, id, date); err != nil {
					return err
				}
				task, err := p.GetTask(id)
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(task, "Task %d is due %s", id, date)
			})
		},
	}
}

func newDeadlineClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove a task from the deadline index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				if err := p.RemoveTaskDeadline(ctx, id); err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(map[string]int64{"cleared": id}, "Cleared deadline of task %d", id)
			})
		},
	}
}
