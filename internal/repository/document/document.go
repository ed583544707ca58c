package document

import (
	"context"
	"errors"
	"strings"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrGroupRequired is returned when an entry is stored without a group.
	ErrGroupRequired = errors.New("entry group must be provided")
)

// Group is a persisted enable/disable switch.
type Group struct {
	// ID is the record identity; the group name is used when the backend has none.
	ID string `bson:"_id,omitempty" yaml:"id,omitempty"`
	// Name is the unique group key.
	Name string `bson:"name" yaml:"name"`
	// Enabled gates alarm evaluation for the group's entries.
	Enabled bool `bson:"enabled" yaml:"enabled"`
	// Description is free operator text.
	Description string `bson:"description,omitempty" yaml:"description,omitempty"`
}

// Entry is a persisted configuration row.
type Entry struct {
	// ID is the record identity.
	ID string `bson:"_id,omitempty" yaml:"id,omitempty"`
	// PVName is the monitored process variable.
	PVName string `bson:"pvname" yaml:"pvname"`
	// Emails is the colon-separated recipient list.
	Emails string `bson:"emails" yaml:"emails"`
	// Condition is the condition name.
	Condition string `bson:"condition" yaml:"condition"`
	// AlarmValues is the condition parameter string.
	AlarmValues string `bson:"alarm_values" yaml:"alarm_values"`
	// Unit is the engineering unit.
	Unit string `bson:"unit" yaml:"unit"`
	// WarningMessage is the operator warning copied into events.
	WarningMessage string `bson:"warning_message" yaml:"warning_message"`
	// Subject is the notification subject.
	Subject string `bson:"subject" yaml:"subject"`
	// EmailTimeout is the debounce interval in seconds.
	EmailTimeout float64 `bson:"email_timeout" yaml:"email_timeout"`
	// Group is the group name.
	Group string `bson:"group" yaml:"group"`
	// GroupID references Group.ID and takes precedence over the name.
	GroupID string `bson:"group_id,omitempty" yaml:"group_id,omitempty"`
}

// Condition describes a condition kind in the conditions collection.
type Condition struct {
	// Name is the lower-case condition key.
	Name string `bson:"name" yaml:"name"`
	// Description explains when the condition fires.
	Description string `bson:"desc" yaml:"desc"`
	// Format documents the alarm_values syntax.
	Format string `bson:"format" yaml:"format"`
	// Supported is false for recognised kinds that cannot be evaluated.
	Supported bool `bson:"supported" yaml:"supported"`
}

// Repository persists groups, entries and conditions.
type Repository interface {
	// Groups returns every group.
	Groups(ctx context.Context) ([]Group, error)
	// Entries returns every entry ordered by ID.
	Entries(ctx context.Context) ([]Entry, error)
	// Conditions returns the conditions collection.
	Conditions(ctx context.Context) ([]Condition, error)
	// CreateGroup stores a group; it returns false if the name is taken.
	CreateGroup(ctx context.Context, group Group) (bool, error)
	// CreateEntry stores an entry, creating its group when missing.
	CreateEntry(ctx context.Context, entry Entry) (string, error)
	// SetGroupEnabled switches a group on or off.
	SetGroupEnabled(ctx context.Context, name string, enabled bool) error
	// InitializeConditions replaces the conditions collection.
	InitializeConditions(ctx context.Context, conditions []Condition) error
	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Normalize trims every text field the way configuration rows are loaded.
func (e Entry) Normalize() Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.PVName = strings.TrimSpace(e.PVName)
	e.Emails = strings.TrimSpace(e.Emails)
	e.Condition = strings.TrimSpace(e.Condition)
	e.AlarmValues = strings.TrimSpace(e.AlarmValues)
	e.Unit = strings.TrimSpace(e.Unit)
	e.WarningMessage = strings.TrimSpace(e.WarningMessage)
	e.Subject = strings.TrimSpace(e.Subject)
	e.Group = strings.TrimSpace(e.Group)
	e.GroupID = strings.TrimSpace(e.GroupID)

	return e
}

// Config converts the record into the domain configuration row.
func (e Entry) Config() domain.EntryConfig {
	return domain.EntryConfig{
		ID:             e.ID,
		PVName:         e.PVName,
		Emails:         e.Emails,
		Condition:      e.Condition,
		AlarmValues:    e.AlarmValues,
		Unit:           e.Unit,
		WarningMessage: e.WarningMessage,
		Subject:        e.Subject,
		EmailTimeout:   e.EmailTimeout,
		Group:          e.Group,
	}
}

// FromEntry renders a live entry back into a record.
func FromEntry(entry *domain.Entry) Entry {
	cfg := entry.Config()

	return Entry{
		ID:             cfg.ID,
		PVName:         cfg.PVName,
		Emails:         cfg.Emails,
		Condition:      cfg.Condition,
		AlarmValues:    cfg.AlarmValues,
		Unit:           cfg.Unit,
		WarningMessage: cfg.WarningMessage,
		Subject:        cfg.Subject,
		EmailTimeout:   cfg.EmailTimeout,
		Group:          cfg.Group,
	}
}

// FromGroup renders a live group into a record.
func FromGroup(group *domain.Group) Group {
	return Group{
		Name:        group.Name(),
		Enabled:     group.IsEnabled(),
		Description: group.Description(),
	}
}

// SupportedConditions returns the records that seed the conditions collection.
func SupportedConditions() []Condition {
	descriptors := domain.Conditions()
	conditions := make([]Condition, 0, len(descriptors))

	for _, d := range descriptors {
		conditions = append(conditions, Condition{
			Name:        d.Name,
			Description: d.Description,
			Format:      d.Format,
			Supported:   d.Supported,
		})
	}

	return conditions
}
