package monitor

import (
	"context"
	"fmt"

	"github.com/oshokin/pv-alarm/internal/config"
	"github.com/oshokin/pv-alarm/internal/logger"
	"github.com/oshokin/pv-alarm/internal/repository"
	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// Check validates every stored row without connecting to telemetry and returns
// the load report. Rows that would be skipped by Run are listed in Skipped.
func Check(ctx context.Context, configPath string) (*LoadReport, error) {
	ctx = logger.WithName(ctx, "pv-alarm-check")

	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	repo, err := repository.Open(ctx, settings.Repository)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	defer func() {
		if closeErr := repo.Close(ctx); closeErr != nil {
			logger.Errorf(ctx, "Failed to close repository: %v", closeErr)
		}
	}()

	monitor := New(repo, telemetry.Dummy{}, nil, logger.FromContext(ctx))

	report, err := monitor.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err = monitor.Close(); err != nil {
		return nil, err
	}

	return report, nil
}
