package commands

import (
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	backend    string
	sqlitePath string
	jsonOutput bool
	verbose    bool
}

// NewRootCmd creates the taskctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage calendar tasks from the command line",
		Long: "taskctl reads and changes the same task list, deadline index and theme as the HTTP server.\n" +
			"Storage is selected with the same environment variables (STORE_BACKEND, SQLITE_PATH, ...).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", "", "Store backend: memory, sqlite, redis or postgres (overrides STORE_BACKEND)")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file (overrides SQLITE_PATH)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of text")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newUpdateCmd(opts),
		newCompleteCmd(opts),
		newDeleteCmd(opts),
		newDeadlineCmd(opts),
		newDueCmd(opts),
		newCalendarCmd(opts),
		newReconcileCmd(opts),
		newThemeCmd(opts),
		newEventsCmd(opts),
	)

	return cmd
}
