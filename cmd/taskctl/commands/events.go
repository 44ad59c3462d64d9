package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benvon/calendar-todo/internal/queue"
	"github.com/benvon/calendar-todo/internal/workers"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect change events published to RabbitMQ",
	}
	cmd.AddCommand(newEventsWatchCmd(opts))
	return cmd
}

func newEventsWatchCmd(opts *rootOptions) *cobra.Command {
	var binding string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change events as they happen",
		Long: "Print task, deadline and theme events until interrupted.\n" +
			"--binding filters by routing key, e.g. 'task.*' or 'theme.changed'.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withEnv(ctx, func(ctx context.Context, e *env) error {
				if e.broker == nil {
					return errNoBroker
				}
				out := newPrinter(cmd, opts)
				return workers.WatchEvents(ctx, e.broker, binding, func(ctx context.Context, event *queue.Event) error {
					return printEvent(out, event)
				}, e.logger)
			})
		},
	}

	cmd.Flags().StringVar(&binding, "binding", queue.BindAll, "Routing key pattern to subscribe to")
	return cmd
}

func printEvent(out printer, event *queue.Event) error {
	if out.json {
		// One object per line so the stream can be piped
		return out.encodeLine(event)
	}
	line := event.OccurredAt.Format("2006-01-02T15:04:05Z07:00") + " " + headerStyle.Render(string(event.Type))
	if event.TaskID != nil {
		line += fmt.Sprintf(" task=%d", *event.TaskID)
	}
	if event.Date != "" {
		line += " date=" + event.Date
	}
	if event.Theme != "" {
		line += " theme=" + event.Theme
	}
	_, err := fmt.Fprintln(out.w, line)
	return err
}
