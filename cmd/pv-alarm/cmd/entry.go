package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/service/admin"
)

var (
	// newEntry collects the flags of `entry add`.
	newEntry document.Entry

	// entryCmd groups the entry management subcommands.
	entryCmd = &cobra.Command{
		Use:   "entry",
		Short: "Manage alarm entries.",
	}

	// entryAddCmd validates and stores a new entry.
	entryAddCmd = &cobra.Command{
		Use:   "add <pvname>",
		Short: "Add an entry.",
		Long: `Validates the entry the same way the monitor does and stores it.
The group is created when it does not exist yet. A running monitor loads new
entries on restart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			entry := newEntry
			entry.PVName = args[0]

			id, err := service.CreateEntry(ctx, entry)
			if err != nil {
				return fmt.Errorf("add entry: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := entryAddCmd.Flags()
	flags.StringVarP(&newEntry.Group, "group", "g", "", "group name")
	flags.StringVar(&newEntry.Condition, "condition", "", "condition name, e.g. OutOfRange")
	flags.StringVar(&newEntry.AlarmValues, "values", "", "alarm values, e.g. 1:2")
	flags.StringVar(&newEntry.Unit, "unit", "", "engineering unit")
	flags.StringVar(&newEntry.Emails, "emails", "", "colon separated recipients")
	flags.StringVar(&newEntry.WarningMessage, "message", "", "warning message")
	flags.StringVar(&newEntry.Subject, "subject", "", "event subject")
	flags.Float64Var(&newEntry.EmailTimeout, "timeout", 0, "minimum seconds between two events")

	for _, name := range []string{"group", "condition", "values"} {
		if err := entryAddCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	entryCmd.AddCommand(entryAddCmd)
}
