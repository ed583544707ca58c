package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pv-alarm/internal/repository/document"
)

// TestRepository_NotFound verifies reads of a missing file return ErrNotFound.
func TestRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	groups, err := repo.Groups(context.Background())
	require.ErrorIs(t, err, document.ErrNotFound)
	require.Nil(t, groups)

	err = repo.SetGroupEnabled(context.Background(), "linac", false)
	require.ErrorIs(t, err, document.ErrNotFound)
}

// TestRepository_CreateEntry_CreatesGroup ensures an entry brings its group along
// and that the stored row is trimmed.
func TestRepository_CreateEntry_CreatesGroup(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		path = filepath.Join(t.TempDir(), "pv-alarm.yaml")
		repo = NewRepository(path)
	)

	id, err := repo.CreateEntry(ctx, document.Entry{
		PVName:       " SI-13C4:DI-DCCT:Current-Mon ",
		Emails:       "ops@lnls.br",
		Condition:    "outofrange",
		AlarmValues:  "1:2",
		EmailTimeout: 60,
		Group:        " machine ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	groups, err := repo.Groups(ctx)
	require.NoError(t, err)
	require.Equal(t, []document.Group{{ID: "machine", Name: "machine", Enabled: true}}, groups)

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, id, entries[0].ID)
	require.Equal(t, "SI-13C4:DI-DCCT:Current-Mon", entries[0].PVName)
	require.Equal(t, "machine", entries[0].GroupID)

	_, err = repo.CreateEntry(ctx, document.Entry{PVName: "X"})
	require.ErrorIs(t, err, document.ErrGroupRequired)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestRepository_CreateGroup_Duplicate checks a taken name is reported, not overwritten.
func TestRepository_CreateGroup_Duplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(filepath.Join(t.TempDir(), "pv-alarm.yaml"))

	created, err := repo.CreateGroup(ctx, document.Group{Name: "vacuum", Enabled: true, Description: "Vacuum"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.CreateGroup(ctx, document.Group{Name: "vacuum"})
	require.NoError(t, err)
	require.False(t, created)

	groups, err := repo.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.True(t, groups[0].Enabled)
	require.Equal(t, "Vacuum", groups[0].Description)
}

// TestRepository_SetGroupEnabled verifies toggles persist.
func TestRepository_SetGroupEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(filepath.Join(t.TempDir(), "pv-alarm.yaml"))

	_, err := repo.CreateGroup(ctx, document.Group{Name: "radiation", Enabled: true})
	require.NoError(t, err)

	require.NoError(t, repo.SetGroupEnabled(ctx, "radiation", false))

	groups, err := repo.Groups(ctx)
	require.NoError(t, err)
	require.False(t, groups[0].Enabled)

	err = repo.SetGroupEnabled(ctx, "linac", true)
	require.ErrorIs(t, err, document.ErrNotFound)
}

// TestRepository_EntriesSortedByID checks the loader ordering of hand-written files.
func TestRepository_EntriesSortedByID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pv-alarm.yaml")
	contents := `
groups:
  - name: machine
    enabled: true
entries:
  - id: "0003"
    pvname: "  C  "
    group: machine
  - id: "0001"
    pvname: A
    group: machine
  - id: "0002"
    pvname: B
    group: machine
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	entries, err := NewRepository(path).Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "A", entries[0].PVName)
	require.Equal(t, "B", entries[1].PVName)
	require.Equal(t, "C", entries[2].PVName)
}

// TestRepository_InitializeConditions replaces the stored set.
func TestRepository_InitializeConditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(filepath.Join(t.TempDir(), "pv-alarm.yaml"))

	require.NoError(t, repo.InitializeConditions(ctx, []document.Condition{{Name: "stale"}}))
	require.NoError(t, repo.InitializeConditions(ctx, document.SupportedConditions()))

	conditions, err := repo.Conditions(ctx)
	require.NoError(t, err)
	require.Equal(t, document.SupportedConditions(), conditions)
	require.NoError(t, repo.Close(ctx))
}
