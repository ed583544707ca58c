package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/pv-alarm/internal/config"
	"github.com/oshokin/pv-alarm/internal/service/monitor"
	"github.com/oshokin/pv-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// healthAddress overrides the health listen address from the settings.
	healthAddress string

	// rootCmd represents the base command for running the monitor.
	rootCmd = &cobra.Command{
		Use:   "pv-alarm [health-address]",
		Short: "Monitor process variables and raise alarm events.",
		Long: `Loads groups and entries from the configured repository, subscribes to every
entry's process variable and evaluates each sample against the entry condition.

Events are written to the log and, when an events topic is configured, published
to the MQTT broker. A gRPC health endpoint reports whether the event queue accepts
new events. The health address can be provided as argument to override config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			address := healthAddress
			if len(args) > 0 {
				address = args[0]
			}

			return monitor.Run(ctx, &monitor.Options{
				ConfigPath:    configPath,
				HealthAddress: address,
			})
		},
	}
)

// Execute runs the pv-alarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandContext returns a context canceled on SIGTERM or SIGINT.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&healthAddress, "health-addr", "", "health listen address, overrides config")

	rootCmd.AddCommand(checkCmd, groupCmd, entryCmd, conditionsCmd, statusCmd)
}
