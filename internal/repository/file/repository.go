package file

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/pv-alarm/internal/config"
	"github.com/oshokin/pv-alarm/internal/logger"
	"github.com/oshokin/pv-alarm/internal/repository/document"
)

// dataset is the on-disk layout.
type dataset struct {
	// Groups are the persisted groups.
	Groups []document.Group `yaml:"groups"`
	// Entries are the persisted configuration rows.
	Entries []document.Entry `yaml:"entries"`
	// Conditions mirror the condition registry.
	Conditions []document.Condition `yaml:"conditions,omitempty"`
}

// Repository persists the configuration to a YAML file on disk.
type Repository struct {
	// path is the filesystem location of the YAML file.
	path string
	// mu serializes access to the file.
	mu sync.Mutex
}

var _ document.Repository = (*Repository)(nil)

// NewRepository creates a repository that reads/writes YAML at the provided path.
func NewRepository(path string) *Repository {
	return &Repository{
		path: filepath.Clean(path),
	}
}

// Groups returns every group.
func (r *Repository) Groups(_ context.Context) ([]document.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range data.Groups {
		if data.Groups[i].ID == "" {
			data.Groups[i].ID = data.Groups[i].Name
		}
	}

	return data.Groups, nil
}

// Entries returns every entry ordered by ID with trimmed fields.
func (r *Repository) Entries(_ context.Context) ([]document.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}

	entries := make([]document.Entry, 0, len(data.Entries))
	for _, entry := range data.Entries {
		entries = append(entries, entry.Normalize())
	}

	slices.SortStableFunc(entries, func(a, b document.Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return entries, nil
}

// Conditions returns the stored conditions.
func (r *Repository) Conditions(_ context.Context) ([]document.Condition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}

	return data.Conditions, nil
}

// CreateGroup appends a group unless the name is taken.
func (r *Repository) CreateGroup(ctx context.Context, group document.Group) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.loadOrEmpty()
	if err != nil {
		return false, err
	}

	if !data.addGroup(group) {
		logger.WarnKV(ctx, "Group already exists", "group", group.Name)
		return false, nil
	}

	if err = r.save(data); err != nil {
		return false, err
	}

	logger.InfoKV(ctx, "Inserted group", "group", group.Name)

	return true, nil
}

// CreateEntry appends an entry, creating its group if it is missing.
func (r *Repository) CreateEntry(ctx context.Context, entry document.Entry) (string, error) {
	entry = entry.Normalize()
	if entry.Group == "" {
		return "", document.ErrGroupRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.loadOrEmpty()
	if err != nil {
		return "", err
	}

	if data.addGroup(document.Group{Name: entry.Group, Enabled: true}) {
		logger.InfoKV(ctx, "Inserted group", "group", entry.Group)
	}

	entry.GroupID = data.groupID(entry.Group)

	if len(data.Conditions) > 0 && !slices.ContainsFunc(data.Conditions, func(c document.Condition) bool {
		return c.Name == entry.Condition
	}) {
		logger.ErrorKV(ctx, "Condition not found at the database", "condition", entry.Condition, "pvname", entry.PVName)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	data.Entries = append(data.Entries, entry)

	if err = r.save(data); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Inserted entry", "pvname", entry.PVName, "id", entry.ID)

	return entry.ID, nil
}

// SetGroupEnabled switches a group on or off.
func (r *Repository) SetGroupEnabled(_ context.Context, name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(data.Groups, func(g document.Group) bool { return g.Name == name })
	if i < 0 {
		return fmt.Errorf("group %s: %w", name, document.ErrNotFound)
	}

	data.Groups[i].Enabled = enabled

	return r.save(data)
}

// InitializeConditions replaces the stored conditions.
func (r *Repository) InitializeConditions(_ context.Context, conditions []document.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.loadOrEmpty()
	if err != nil {
		return err
	}

	data.Conditions = slices.Clone(conditions)

	return r.save(data)
}

// Close is a no-op; the file is not held open.
func (r *Repository) Close(_ context.Context) error {
	return nil
}

// load reads the dataset; a missing file is document.ErrNotFound.
func (r *Repository) load() (*dataset, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, document.ErrNotFound)
		}

		return nil, fmt.Errorf("read repository file: %w", err)
	}

	data := new(dataset)
	if err = yaml.Unmarshal(contents, data); err != nil {
		return nil, fmt.Errorf("decode repository file: %w", err)
	}

	return data, nil
}

// loadOrEmpty reads the dataset, starting a new one when the file does not exist.
func (r *Repository) loadOrEmpty() (*dataset, error) {
	data, err := r.load()
	if errors.Is(err, document.ErrNotFound) {
		return new(dataset), nil
	}

	return data, err
}

// save writes the dataset to disk.
func (r *Repository) save(data *dataset) error {
	contents, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode repository file: %w", err)
	}

	if err = os.WriteFile(r.path, contents, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write repository file: %w", err)
	}

	return nil
}

// addGroup appends group and reports false if its name is taken.
func (d *dataset) addGroup(group document.Group) bool {
	if slices.ContainsFunc(d.Groups, func(g document.Group) bool { return g.Name == group.Name }) {
		return false
	}

	if group.ID == "" {
		group.ID = group.Name
	}

	d.Groups = append(d.Groups, group)

	return true
}

// groupID returns the identity of the named group.
func (d *dataset) groupID(name string) string {
	for _, g := range d.Groups {
		if g.Name == name {
			return cmp.Or(g.ID, g.Name)
		}
	}

	return ""
}
