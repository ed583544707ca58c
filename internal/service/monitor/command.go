package monitor

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/pv-alarm/internal/api/grpc/health"
	"github.com/oshokin/pv-alarm/internal/config"
	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
	"github.com/oshokin/pv-alarm/internal/logger"
	"github.com/oshokin/pv-alarm/internal/queue"
	"github.com/oshokin/pv-alarm/internal/repository"
	"github.com/oshokin/pv-alarm/internal/service/dispatcher"
	"github.com/oshokin/pv-alarm/internal/telemetry"
	"github.com/oshokin/pv-alarm/internal/telemetry/mqtt"
	"github.com/oshokin/pv-alarm/internal/version"
)

// Options controls the pv-alarm daemon.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// HealthAddress overrides the health listen address from the settings.
	HealthAddress string
}

// Run loads the configuration, starts monitoring and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pv-alarm")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if err = logger.SetComponentLevels(settings.LogLevels); err != nil {
		return fmt.Errorf("apply log levels: %w", err)
	}

	listenAddress := settings.HealthAddress
	if opts.HealthAddress != "" {
		listenAddress = opts.HealthAddress
	}

	startCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	repo, err := repository.Open(startCtx, settings.Repository)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	defer func() {
		if closeErr := repo.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Errorf(ctx, "Failed to close repository: %v", closeErr)
		}
	}()

	sources, publisher, err := openTelemetry(settings)
	if err != nil {
		return fmt.Errorf("open telemetry: %w", err)
	}

	if publisher != nil {
		defer publisher.Close() //nolint:errcheck // Close never fails.
	}

	events, err := queue.NewBounded[domain.Event](settings.Events.QueueCapacity)
	if err != nil {
		return fmt.Errorf("create event queue: %w", err)
	}

	notifiers := []dispatcher.Notifier{dispatcher.NewLogNotifier(logger.Named("events"))}
	if publisher != nil && settings.Events.Topic != "" {
		notifiers = append(notifiers, dispatcher.NewMQTTNotifier(publisher, settings.Events.Topic))
	}

	monitor := New(repo, sources, events, logger.Named("monitor"))

	report, err := monitor.Load(startCtx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	defer func() {
		if closeErr := monitor.Close(); closeErr != nil {
			logger.Errorf(ctx, "Failed to close entries: %v", closeErr)
		}
	}()

	if report.Entries == 0 {
		logger.Warn(ctx, "No valid entries to monitor")
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	healthServer := health.NewServer(health.ProbeFunc(func() bool {
		return events.Len() < events.Cap()
	}))

	logger.InfoKV(ctx, "Monitoring started", append(version.Fields(),
		"entries", report.Entries,
		"skipped", len(report.Skipped),
		"repository", settings.Repository.Kind,
		"telemetry", settings.Telemetry.Kind,
		"health_addr", lis.Addr().String(),
	)...)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return dispatcher.New(events, logger.Named("dispatcher"), notifiers...).Run(groupCtx)
	})

	group.Go(func() error {
		return monitor.Run(groupCtx, settings.Events.TriggerInterval, settings.Events.GroupSyncInterval)
	})

	group.Go(func() error {
		healthServer.Watch(groupCtx, settings.Events.GroupSyncInterval)
		return nil
	})

	group.Go(func() error {
		return healthServer.Serve(groupCtx, lis)
	})

	if err = group.Wait(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}

	logger.Info(ctx, "Monitoring stopped")

	return nil
}

// openTelemetry returns the sample source and, for MQTT, the broker connection
// that also publishes events.
func openTelemetry(settings *config.Config) (telemetry.SourceFactory, *mqtt.Factory, error) {
	if settings.Telemetry.Kind != config.TelemetryMQTT {
		return telemetry.Dummy{}, nil, nil
	}

	factory, err := mqtt.Dial(mqtt.Config{
		Broker:         settings.Telemetry.Broker,
		ClientID:       settings.Telemetry.ClientID,
		Username:       settings.Telemetry.Username,
		Password:       settings.Telemetry.Password,
		TopicPrefix:    settings.Telemetry.TopicPrefix,
		QoS:            settings.Telemetry.QoS,
		ConnectTimeout: settings.Timeout,
		DeviceTime:     settings.Telemetry.DeviceTime,
	}, logger.Named("mqtt"))
	if err != nil {
		return nil, nil, err
	}

	return factory, factory, nil
}
