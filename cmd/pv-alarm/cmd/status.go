package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/pv-alarm/internal/api/grpc/health"
	"github.com/oshokin/pv-alarm/internal/config"
	"github.com/oshokin/pv-alarm/internal/service/common"
)

// errNotServing is returned when the daemon reports anything but SERVING.
var errNotServing = errors.New("monitor is not serving")

// statusCmd queries the health endpoint of a running monitor.
var statusCmd = &cobra.Command{
	Use:   "status [health-address]",
	Short: "Query the health of a running monitor.",
	Long: `Asks the gRPC health endpoint of a running monitor for its status.
The address can be provided as argument or loaded from configuration file.
Exits with non-zero status unless the monitor is SERVING.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		settings, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		address := settings.HealthAddress
		if len(args) > 0 {
			address = args[0]
		}

		client, err := common.Dial(ctx, address, common.WithCallTimeout(settings.Timeout))
		if err != nil {
			return err
		}

		defer client.Close() //nolint:errcheck // Nothing to do on close failure.

		status, err := client.Check(ctx, health.ServiceName)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", address, status)

		if status != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("%w: %s", errNotServing, status)
		}

		return nil
	},
}
