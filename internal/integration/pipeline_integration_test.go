package integration

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
	"github.com/oshokin/pv-alarm/internal/queue"
	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/repository/file"
	"github.com/oshokin/pv-alarm/internal/service/admin"
	"github.com/oshokin/pv-alarm/internal/service/common"
	"github.com/oshokin/pv-alarm/internal/service/dispatcher"
	"github.com/oshokin/pv-alarm/internal/service/monitor"
)

const (
	currentPV  = "SI-13C4:DI-DCCT:Current-Mon"
	pressurePV = "BO-35D:VA-SIP20-BG:Pressure-Mon"
)

// collector records delivered events.
type collector struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collector) Name() string { return "collector" }

func (c *collector) Notify(_ context.Context, event domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)

	return nil
}

// manualClock is a wall clock moved by the test.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

func (c *collector) snapshot() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]domain.Event(nil), c.events...)
}

// TestPipeline_SamplesToNotifications drives samples through entries, the queue and the dispatcher.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestPipeline_SamplesToNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := file.NewRepository(filepath.Join(t.TempDir(), "entries.yaml"))
	service := admin.NewService(repo, common.Actor{Hostname: "test-host", Username: "test-user"})

	for _, entry := range []document.Entry{
		{
			PVName:       currentPV,
			Emails:       "ops@lnls.br",
			Condition:    "OutOfRange",
			AlarmValues:  "1:2",
			Unit:         "mA",
			EmailTimeout: 86400,
			Group:        "machine",
		},
		{
			PVName:      pressurePV,
			Emails:      "vacuum@lnls.br",
			Condition:   "IncreasingStep",
			AlarmValues: "1.5:2.0:2.5",
			Unit:        "mbar",
			Group:       "vacuum",
		},
	} {
		_, err := service.CreateEntry(ctx, entry)
		require.NoError(t, err)
	}

	events, err := queue.NewBounded[domain.Event](8)
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	clock := &manualClock{now: now}

	sources := newFeedFactory()
	m := monitor.New(repo, sources, events, nil, monitor.WithClock(clock.Now))

	report, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Entries)
	require.Empty(t, report.Skipped)

	defer func() {
		require.NoError(t, m.Close())
	}()

	sink := &collector{}
	d := dispatcher.New(events, nil, sink)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)

	go func() {
		done <- d.Run(runCtx)
	}()

	// Out of range, then inside the debounce window.
	sources.source(currentPV).push(5, now)
	sources.source(currentPV).push(6, now.Add(time.Minute))

	// Two step crossings produce two events; falling back is silent.
	sources.source(pressurePV).push(1.7, now)
	sources.source(pressurePV).push(2.2, now.Add(time.Second))
	sources.source(pressurePV).push(1.0, now.Add(2*time.Second))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 3 }, 2*time.Second, 10*time.Millisecond)

	delivered := sink.snapshot()
	require.Equal(t, currentPV, delivered[0].PVName)
	require.Equal(t, "from 1.0mA to 2.0mA", delivered[0].SpecifiedValueMessage)
	require.Equal(t, "5.0", delivered[0].ValueMeasured)
	require.Equal(t, pressurePV, delivered[1].PVName)
	require.Equal(t, "1.7", delivered[1].ValueMeasured)
	require.Equal(t, "2.2", delivered[2].ValueMeasured)

	// A disabled group silences its entries once the monitor syncs.
	require.NoError(t, service.SetGroupEnabled(ctx, "vacuum", false))
	require.NoError(t, m.SyncGroups(ctx))

	sources.source(pressurePV).push(3.0, now.Add(time.Hour))
	clock.set(now.Add(2 * time.Hour))
	require.Zero(t, m.TriggerAll(), "current is debounced and vacuum is disabled")

	require.NoError(t, service.SetGroupEnabled(ctx, "vacuum", true))
	require.NoError(t, m.SyncGroups(ctx))
	require.Equal(t, 1, m.TriggerAll(), "manual trigger re-evaluates the cached pressure")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 4 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "3.0", sink.snapshot()[3].ValueMeasured)

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, uint64(4), d.Delivered())
	require.Zero(t, d.Failed())
}
