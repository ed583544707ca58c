package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/pv-alarm/internal/service/monitor"
)

// errInvalidRows is returned when some configuration rows cannot be monitored.
var errInvalidRows = errors.New("configuration has invalid rows")

// checkCmd validates the stored configuration without subscribing to telemetry.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate stored groups and entries.",
	Long: `Loads every group and entry from the configured repository and reports the rows
that would be skipped by the monitor. Exits with non-zero status if any row is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		report, err := monitor.Check(ctx, configPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "groups: %d, valid entries: %d, skipped: %d\n",
			report.Groups, report.Entries, len(report.Skipped))

		for _, skipped := range report.Skipped {
			_, _ = fmt.Fprintf(out, "  %v\n", skipped)
		}

		if len(report.Skipped) > 0 {
			return fmt.Errorf("%w: %d", errInvalidRows, len(report.Skipped))
		}

		return nil
	},
}
