package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/services/planner"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var description, deadline string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long:  "Add a pending task, optionally filed under a YYYY-MM-DD deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				task, err := p.AddTask(ctx, planner.TaskInput{
					Title:       args[0],
					Description: description,
					Deadline:    deadline,
				})
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(task, "Created task %d", task.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline date (YYYY-MM-DD)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				tasks, err := p.ListTasks()
				if err != nil {
					if !apperr.IsIO(err) {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
				return newPrinter(cmd, opts).tasks(tasks)
			})
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				task, err := p.GetTask(id)
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).task(task)
			})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var title, description, deadline string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task",
		Long: "Edit the title, description or deadline of a task. Fields whose flag is not given keep their value;\n" +
			"--deadline \"\" removes the deadline.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("deadline") {
				return fmt.Errorf("nothing to update: pass --title, --description or --deadline")
			}

			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				current, err := p.GetTask(id)
				if err != nil {
					return err
				}
				in := planner.TaskInput{
					Title:       current.Title,
					Description: current.Description,
					Deadline:    current.Deadline,
				}
				if flags.Changed("title") {
					in.Title = title
				}
				if flags.Changed("description") {
					in.Description = description
				}
				if flags.Changed("deadline") {
					in.Deadline = deadline
				}

				task, err := p.UpdateTask(ctx, id, in)
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(task, "Updated task %d", task.ID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline (YYYY-MM-DD, empty to remove)")
	return cmd
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				if err := p.CompleteTask(ctx, id); err != nil {
					return err
				}
				task, err := p.GetTask(id)
				if err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(task, "Completed task %d", id)
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its deadline",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return opts.withPlanner(cmd.Context(), func(ctx context.Context, p *planner.Manager) error {
				if err := p.DeleteTask(ctx, id); err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(map[string]int64{"deleted": id}, "Deleted task %d", id)
			})
		},
	}
}
