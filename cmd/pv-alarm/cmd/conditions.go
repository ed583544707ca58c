package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/service/admin"
)

var (
	// conditionsCmd groups the conditions collection subcommands.
	conditionsCmd = &cobra.Command{
		Use:   "conditions",
		Short: "Manage the conditions collection.",
	}

	// conditionsListCmd prints the stored conditions.
	conditionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored conditions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			conditions, err := service.Conditions(ctx)
			if err != nil {
				return fmt.Errorf("list conditions: %w", err)
			}

			return printConditions(cmd.OutOrStdout(), conditions)
		},
	}

	// conditionsInitCmd rewrites the conditions collection.
	conditionsInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Replace the conditions collection with the supported kinds.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			conditions, err := service.InitializeConditions(ctx)
			if err != nil {
				return fmt.Errorf("initialize conditions: %w", err)
			}

			return printConditions(cmd.OutOrStdout(), conditions)
		},
	}
)

func printConditions(out io.Writer, conditions []document.Condition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSUPPORTED\tFORMAT\tDESCRIPTION")

	for _, c := range conditions {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", c.Name, c.Supported, c.Format, c.Description)
	}

	return w.Flush()
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	conditionsCmd.AddCommand(conditionsListCmd, conditionsInitCmd)
}
