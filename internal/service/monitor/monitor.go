package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// ErrUnknownGroup is returned when toggling a group that was not loaded.
var ErrUnknownGroup = errors.New("unknown group")

// LoadReport summarizes a configuration load.
type LoadReport struct {
	// Groups is the number of loaded groups.
	Groups int
	// Entries is the number of entries that are now monitored.
	Entries int
	// Skipped holds one error per rejected row.
	Skipped []error
}

// Monitor owns the live groups and entries.
type Monitor struct {
	// repo is the configuration source.
	repo document.Repository
	// sources opens telemetry for every entry.
	sources telemetry.SourceFactory
	// queue receives events from every entry.
	queue domain.Enqueuer
	// log is the monitor logger; entries and groups get named children.
	log *zap.SugaredLogger
	// clock is handed to entries.
	clock func() time.Time

	// mu guards groups and entries.
	mu sync.RWMutex
	// groups indexes the live groups.
	groups *document.GroupIndex
	// entries are the monitored entries in repository order.
	entries []*domain.Entry
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock overrides the clock handed to entries.
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// New creates a monitor. Nothing is loaded until Load is called.
func New(
	repo document.Repository,
	sources telemetry.SourceFactory,
	queue domain.Enqueuer,
	log *zap.SugaredLogger,
	opts ...Option,
) *Monitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	m := &Monitor{
		repo:    repo,
		sources: sources,
		queue:   queue,
		log:     log,
		clock:   time.Now,
		groups:  document.NewGroupIndex(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load reads groups and entries from the repository and starts monitoring them.
// Rows that cannot be turned into entries are logged, reported and skipped.
// Load replaces whatever was loaded before.
func (m *Monitor) Load(ctx context.Context) (*LoadReport, error) {
	groupRecords, err := m.repo.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	entryRecords, err := m.repo.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	var (
		groups  = document.NewGroupIndex()
		report  = &LoadReport{}
		entries = make([]*domain.Entry, 0, len(entryRecords))
	)

	for _, record := range groupRecords {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			report.Skipped = append(report.Skipped, fmt.Errorf("group %q: %w", record.ID, ErrUnknownGroup))
			continue
		}

		groups.Add(record.ID, domain.NewGroup(name, record.Description, record.Enabled, m.log.Named("group")))
		report.Groups++
	}

	for _, record := range entryRecords {
		entry, err := m.buildEntry(groups, record)
		if err != nil {
			m.log.Errorw("Failed to create entry", "id", record.ID, "pvname", record.PVName, "error", err)
			report.Skipped = append(report.Skipped, err)

			continue
		}

		m.log.Debugw("Entry loaded", "entry", entry.String())
		entries = append(entries, entry)
	}

	report.Entries = len(entries)

	m.mu.Lock()
	previous := m.entries
	m.groups, m.entries = groups, entries
	m.mu.Unlock()

	_ = closeEntries(m.log, previous)

	m.log.Infow("Configuration loaded",
		"groups", report.Groups, "entries", report.Entries, "skipped", len(report.Skipped))

	return report, nil
}

// buildEntry resolves the row's group and constructs the live entry.
func (m *Monitor) buildEntry(groups *document.GroupIndex, record document.Entry) (*domain.Entry, error) {
	group, ok := groups.Resolve(record)
	if !ok {
		return nil, &domain.ConfigurationError{
			PVName: record.PVName,
			Field:  "group",
			Value:  record.Group,
			Err:    domain.ErrMissingGroup,
		}
	}

	return domain.NewEntry(record.Config(), group,
		domain.WithSourceFactory(m.sources),
		domain.WithQueue(m.queue),
		domain.WithLogger(m.log.Named("entry")),
		domain.WithClock(m.clock),
	)
}

// Entries returns the monitored entries.
func (m *Monitor) Entries() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.entries)
}

// Groups returns the live groups sorted by name.
func (m *Monitor) Groups() []*domain.Group {
	m.mu.RLock()
	groups := m.groups.Groups()
	m.mu.RUnlock()

	slices.SortFunc(groups, func(a, b *domain.Group) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return groups
}

// TriggerAll re-evaluates every entry with its current value and returns the
// number of produced events.
func (m *Monitor) TriggerAll() int {
	produced := 0

	for _, entry := range m.Entries() {
		if _, ok := entry.Trigger(); ok {
			produced++
		}
	}

	return produced
}

// SyncGroups pulls group switches from the repository into the live groups.
// Groups created after Load are ignored until the next Load.
func (m *Monitor) SyncGroups(ctx context.Context) error {
	records, err := m.repo.Groups(ctx)
	if err != nil {
		return fmt.Errorf("sync groups: %w", err)
	}

	m.mu.RLock()
	groups := m.groups
	m.mu.RUnlock()

	for _, record := range records {
		group, ok := groups.ByName(strings.TrimSpace(record.Name))
		if !ok {
			m.log.Debugw("Ignoring group created after load", "group", record.Name)
			continue
		}

		group.SetEnabled(record.Enabled)
	}

	return nil
}

// SetGroupEnabled persists a group switch and applies it to the live group.
func (m *Monitor) SetGroupEnabled(ctx context.Context, name string, enabled bool) error {
	m.mu.RLock()
	group, ok := m.groups.ByName(name)
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}

	if err := m.repo.SetGroupEnabled(ctx, name, enabled); err != nil {
		return fmt.Errorf("persist group %s: %w", name, err)
	}

	group.SetEnabled(enabled)

	return nil
}

// Run re-triggers entries every triggerInterval and syncs groups every
// syncInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context, triggerInterval, syncInterval time.Duration) error {
	triggerTicker := time.NewTicker(triggerInterval)
	defer triggerTicker.Stop()

	syncTicker := time.NewTicker(syncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-triggerTicker.C:
			if produced := m.TriggerAll(); produced > 0 {
				m.log.Infow("Manual trigger produced events", "events", produced)
			}
		case <-syncTicker.C:
			if err := m.SyncGroups(ctx); err != nil {
				m.log.Warnw("Failed to sync groups", "error", err)
			}
		}
	}
}

// Close stops every entry's telemetry subscription.
func (m *Monitor) Close() error {
	m.mu.Lock()
	entries := m.entries
	m.entries = nil
	m.mu.Unlock()

	return closeEntries(m.log, entries)
}

// closeEntries closes entries and joins their errors.
func closeEntries(log *zap.SugaredLogger, entries []*domain.Entry) error {
	var errs []error

	for _, entry := range entries {
		if err := entry.Close(); err != nil {
			log.Warnw("Failed to close entry", "pvname", entry.PVName(), "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
