package document

import (
	"strings"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
)

// GroupIndex resolves entry rows to the shared live groups.
type GroupIndex struct {
	// byID indexes groups by record identity.
	byID map[string]*domain.Group
	// byName indexes groups by name.
	byName map[string]*domain.Group
}

// NewGroupIndex creates an empty index.
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{
		byID:   make(map[string]*domain.Group),
		byName: make(map[string]*domain.Group),
	}
}

// Add registers a live group under its record identity and name.
func (i *GroupIndex) Add(id string, group *domain.Group) {
	if id = strings.TrimSpace(id); id != "" {
		i.byID[id] = group
	}

	i.byName[group.Name()] = group
}

// Resolve finds the group of an entry row, preferring group_id over the name.
func (i *GroupIndex) Resolve(entry Entry) (*domain.Group, bool) {
	if entry.GroupID != "" {
		if group, ok := i.byID[entry.GroupID]; ok {
			return group, true
		}
	}

	group, ok := i.byName[entry.Group]

	return group, ok
}

// ByName returns the group with the given name.
func (i *GroupIndex) ByName(name string) (*domain.Group, bool) {
	group, ok := i.byName[name]

	return group, ok
}

// Groups returns every indexed group.
func (i *GroupIndex) Groups() []*domain.Group {
	groups := make([]*domain.Group, 0, len(i.byName))
	for _, group := range i.byName {
		groups = append(groups, group)
	}

	return groups
}
