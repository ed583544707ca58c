package alarm

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// Enqueuer accepts events without ever blocking the caller.
type Enqueuer interface {
	// TryEnqueue reports false when the event was dropped because the queue is full.
	TryEnqueue(event Event) bool
}

// EntryConfig is a configuration row describing one monitored PV.
type EntryConfig struct {
	// ID is the persistent identity of the row, if any.
	ID string
	// PVName is the process variable to observe.
	PVName string
	// Emails is the colon-separated list of recipients.
	Emails string
	// Condition is the condition name, matched case-insensitively.
	Condition string
	// AlarmValues is the condition-specific parameter string.
	AlarmValues string
	// Unit is the engineering unit appended to messages.
	Unit string
	// WarningMessage is the operator text copied into events.
	WarningMessage string
	// Subject is the notification subject line.
	Subject string
	// EmailTimeout is the debounce interval in seconds.
	EmailTimeout float64
	// Group is the group name. NewEntry takes the resolved *Group instead.
	Group string
}

// EntryOption customizes entry construction.
type EntryOption func(*entryOptions)

// entryOptions collects optional collaborators of an entry.
type entryOptions struct {
	sources telemetry.SourceFactory
	queue   Enqueuer
	log     *zap.SugaredLogger
	clock   func() time.Time
}

// WithSourceFactory sets the factory used to open the entry's telemetry source.
// Without it the entry uses the disconnected telemetry.Dummy source.
func WithSourceFactory(f telemetry.SourceFactory) EntryOption {
	return func(o *entryOptions) {
		if f != nil {
			o.sources = f
		}
	}
}

// WithQueue sets the queue receiving produced events.
func WithQueue(q Enqueuer) EntryOption {
	return func(o *entryOptions) {
		if q != nil {
			o.queue = q
		}
	}
}

// WithLogger sets the logger used on the evaluation path.
func WithLogger(l *zap.SugaredLogger) EntryOption {
	return func(o *entryOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the wall clock used at construction and by Trigger.
func WithClock(clock func() time.Time) EntryOption {
	return func(o *entryOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// discardQueue drops every event; used when no queue is configured.
type discardQueue struct{}

func (discardQueue) TryEnqueue(Event) bool { return true }

// Entry evaluates samples of one PV against one condition.
type Entry struct {
	// id is the persistent identity of the configuration row.
	id string
	// pvName is the observed process variable.
	pvName string
	// condition is the parsed condition with its evaluator.
	condition *Condition
	// unit is the engineering unit.
	unit string
	// recipients are the notification addresses.
	recipients []string
	// warningMessage is copied into events.
	warningMessage string
	// subject is copied into events.
	subject string
	// debounce is the minimum time between two events.
	debounce time.Duration
	// group gates evaluation; shared, not owned.
	group *Group
	// source is the telemetry subscription; owned and closed by Close.
	source telemetry.Source
	// queue receives produced events.
	queue Enqueuer
	// log receives evaluation diagnostics.
	log *zap.SugaredLogger
	// clock supplies wall time for construction and manual triggers.
	clock func() time.Time

	// mu serializes evaluation and guards lastEventTime and stepLevel.
	mu sync.Mutex
	// lastEventTime is the sample time of the last produced event.
	lastEventTime time.Time
	// stepLevel is the current level of an IncreasingStep condition.
	stepLevel int
}

// NewEntry validates the configuration row and builds an entry bound to group.
// Opening the telemetry source is the last step, so callbacks never observe a
// partially built entry. Validation failures are *ConfigurationError.
func NewEntry(cfg EntryConfig, group *Group, opts ...EntryOption) (*Entry, error) {
	options := entryOptions{
		sources: telemetry.Dummy{},
		queue:   discardQueue{},
		log:     zap.NewNop().Sugar(),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(&options)
	}

	pvName, err := telemetry.NormalizePVName(cfg.PVName)
	if err != nil {
		return nil, &ConfigurationError{PVName: cfg.PVName, Field: "pvname", Value: cfg.PVName, Err: err}
	}

	if group == nil {
		return nil, &ConfigurationError{PVName: pvName, Field: "group", Value: cfg.Group, Err: ErrMissingGroup}
	}

	condition, err := ParseCondition(cfg.Condition, cfg.AlarmValues)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.PVName = pvName
		}

		return nil, err
	}

	if !validTimeout(cfg.EmailTimeout) {
		return nil, &ConfigurationError{
			PVName: pvName,
			Field:  "email_timeout",
			Value:  fmt.Sprint(cfg.EmailTimeout),
			Err:    ErrInvalidTimeout,
		}
	}

	debounce := time.Duration(cfg.EmailTimeout * float64(time.Second))

	e := &Entry{
		id:             cfg.ID,
		pvName:         pvName,
		condition:      condition,
		unit:           strings.TrimSpace(cfg.Unit),
		recipients:     parseRecipients(cfg.Emails),
		warningMessage: strings.TrimSpace(cfg.WarningMessage),
		subject:        strings.TrimSpace(cfg.Subject),
		debounce:       debounce,
		group:          group,
		queue:          options.queue,
		clock:          options.clock,
		// Start in the past so the first violation after start-up is reported right away.
		lastEventTime: options.clock().Add(-debounce),
	}

	e.log = options.log.With("pvname", pvName, "group", group.Name())

	source, err := options.sources.Open(pvName, e.handleSample)
	if err != nil {
		return nil, &ConfigurationError{
			PVName: pvName,
			Field:  "pvname",
			Value:  pvName,
			Err:    fmt.Errorf("%w: %w", ErrSourceUnavailable, err),
		}
	}

	e.source = source

	return e, nil
}

// maxEmailTimeout is the longest debounce, in seconds, a time.Duration can hold.
const maxEmailTimeout = float64(math.MaxInt64 / int64(time.Second))

// validTimeout reports whether seconds converts to a non-negative time.Duration.
func validTimeout(seconds float64) bool {
	return seconds >= 0 && seconds < maxEmailTimeout
}

// parseRecipients splits the colon-separated address list.
func parseRecipients(emails string) []string {
	parts := strings.Split(emails, stepSeparator)
	recipients := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			recipients = append(recipients, part)
		}
	}

	return recipients
}

// handleSample is the telemetry callback. It must never panic into the source.
func (e *Entry) handleSample(value float64, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("Alarm evaluation panicked", "panic", r, "value", value)
		}
	}()

	e.Evaluate(value, at)
}

// Evaluate checks a sample taken at the given time and, on a violation outside the
// debounce window, produces an event and offers it to the queue.
// It reports the produced event, which is returned even if the queue dropped it.
func (e *Entry) Evaluate(sample float64, at time.Time) (Event, bool) {
	if !e.group.IsEnabled() {
		e.log.Infow("Ignoring entry, group is disabled")
		return Event{}, false
	}

	if !e.source.Connected() {
		e.log.Debugw("Ignoring entry, PV is disconnected")
		return Event{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if elapsed := at.Sub(e.lastEventTime); elapsed < e.debounce {
		e.log.Infow("Ignoring entry, timeout still active", "elapsed", elapsed, "timeout", e.debounce)
		return Event{}, false
	}

	level, message := e.condition.Evaluate(e.stepLevel, sample, e.unit)
	if level < e.stepLevel {
		e.log.Infow("Going down step levels", "from", e.stepLevel, "to", level, "value", sample)
	}

	e.stepLevel = level

	if message == "" {
		return Event{}, false
	}

	event := newEvent(e, message, sample, at)
	e.lastEventTime = at

	if !e.queue.TryEnqueue(event) {
		e.log.Errorw("Failed to put event in queue, queue is full",
			"entry", e.describe(), "event", event.String())

		return event, true
	}

	e.log.Infow("New event", "event", event.String())

	return event, true
}

// Trigger re-evaluates the current value of the source at the current time.
func (e *Entry) Trigger() (Event, bool) {
	value, ok := e.source.Value()
	if !ok {
		e.log.Debugw("Ignoring manual trigger, no value received yet")
		return Event{}, false
	}

	return e.Evaluate(value, e.clock())
}

// Close releases the telemetry subscription.
func (e *Entry) Close() error {
	if err := e.source.Close(); err != nil {
		return fmt.Errorf("close source %s: %w", e.pvName, err)
	}

	return nil
}

// ID returns the persistent identity of the entry.
func (e *Entry) ID() string { return e.id }

// PVName returns the observed process variable.
func (e *Entry) PVName() string { return e.pvName }

// Group returns the shared group gate.
func (e *Entry) Group() *Group { return e.group }

// Condition returns the parsed condition.
func (e *Entry) Condition() *Condition { return e.condition }

// Debounce returns the minimum time between two events.
func (e *Entry) Debounce() time.Duration { return e.debounce }

// Recipients returns a copy of the notification addresses.
func (e *Entry) Recipients() []string { return slices.Clone(e.recipients) }

// Source returns the telemetry subscription.
func (e *Entry) Source() telemetry.Source { return e.source }

// StepLevel returns the current step level.
func (e *Entry) StepLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stepLevel
}

// LastEventTime returns the sample time of the last produced event.
func (e *Entry) LastEventTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastEventTime
}

// Config renders the entry back into a configuration row.
func (e *Entry) Config() EntryConfig {
	return EntryConfig{
		ID:             e.id,
		PVName:         e.pvName,
		Emails:         strings.Join(e.recipients, stepSeparator),
		Condition:      e.condition.Kind().String(),
		AlarmValues:    e.condition.Raw(),
		Unit:           e.unit,
		WarningMessage: e.warningMessage,
		Subject:        e.subject,
		EmailTimeout:   e.debounce.Seconds(),
		Group:          e.group.Name(),
	}
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	return e.describe()
}

// describe does not touch the entry lock, so it is safe to call while holding it.
func (e *Entry) describe() string {
	return fmt.Sprintf("<Entry=%s pvname=%q group=%s condition=%q alarm_values=%s emails=%s>",
		e.id, e.pvName, e.group, e.condition.Kind(), e.condition.Raw(), strings.Join(e.recipients, stepSeparator))
}
