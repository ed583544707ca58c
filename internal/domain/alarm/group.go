package alarm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Group is an administrative switch shared by a set of entries.
// Entries read it on every evaluation; nobody pushes state into them.
type Group struct {
	// name is the unique group key.
	name string
	// description is free text shown to operators.
	description string
	// log receives enable/disable transitions.
	log *zap.SugaredLogger

	// mu protects enabled.
	mu sync.Mutex
	// enabled gates alarm evaluation for every referencing entry.
	enabled bool
}

// NewGroup creates a group. A nil logger disables transition logging.
func NewGroup(name, description string, enabled bool, log *zap.SugaredLogger) *Group {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Group{
		name:        name,
		description: description,
		enabled:     enabled,
		log:         log,
	}
}

// Name returns the group key.
func (g *Group) Name() string {
	return g.name
}

// Description returns the operator-facing description.
func (g *Group) Description() string {
	return g.description
}

// IsEnabled reports whether entries in this group evaluate alarms.
func (g *Group) IsEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.enabled
}

// SetEnabled switches alarm evaluation on or off for every entry in the group.
func (g *Group) SetEnabled(enabled bool) {
	g.mu.Lock()
	changed := g.enabled != enabled
	g.enabled = enabled
	g.mu.Unlock()

	if changed {
		g.log.Infow("Group state changed", "group", g.name, "enabled", enabled)
	}
}

// String implements fmt.Stringer.
func (g *Group) String() string {
	return fmt.Sprintf("<Group=%q enabled=%t>", g.name, g.IsEnabled())
}
