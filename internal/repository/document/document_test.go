package document

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
)

// TestEntry_Normalize checks every text field is trimmed.
func TestEntry_Normalize(t *testing.T) {
	t.Parallel()

	got := Entry{
		ID:             " 61a4b8f0 ",
		PVName:         " RAD:Thermo7:TotalDoseRate:Dose ",
		Emails:         " a@lnls.br:b@lnls.br ",
		Condition:      " SuperiorThan\t",
		AlarmValues:    " 2.0 ",
		Unit:           " uSv/h ",
		WarningMessage: " Dose rate above limit ",
		Subject:        " Radiation ",
		EmailTimeout:   600,
		Group:          " radiation ",
		GroupID:        " 5f1 ",
	}.Normalize()

	require.Equal(t, Entry{
		ID:             "61a4b8f0",
		PVName:         "RAD:Thermo7:TotalDoseRate:Dose",
		Emails:         "a@lnls.br:b@lnls.br",
		Condition:      "SuperiorThan",
		AlarmValues:    "2.0",
		Unit:           "uSv/h",
		WarningMessage: "Dose rate above limit",
		Subject:        "Radiation",
		EmailTimeout:   600,
		Group:          "radiation",
		GroupID:        "5f1",
	}, got)
}

// TestEntry_ConfigRoundTrip verifies a record survives conversion into a live entry and back.
func TestEntry_ConfigRoundTrip(t *testing.T) {
	t.Parallel()

	record := Entry{
		ID:             "61a4b8f0c2e5d1a3b4c5d6e7",
		PVName:         "SI-Glob:AP-CurrInfo:Current-Mon",
		Emails:         "ops@lnls.br:fac@lnls.br",
		Condition:      "outofrange",
		AlarmValues:    "0:350",
		Unit:           "mA",
		WarningMessage: "Stored current",
		Subject:        "Beam",
		EmailTimeout:   300,
		Group:          "machine",
	}

	group := domain.NewGroup("machine", "Machine", true, nil)

	entry, err := domain.NewEntry(record.Config(), group)
	require.NoError(t, err)
	require.Equal(t, record, FromEntry(entry))
	require.Equal(t, Group{Name: "machine", Enabled: true, Description: "Machine"}, FromGroup(group))
}

// TestGroupIndex_Resolve verifies group_id wins over the group name and the name is the fallback.
func TestGroupIndex_Resolve(t *testing.T) {
	t.Parallel()

	var (
		linac   = domain.NewGroup("linac", "", true, nil)
		booster = domain.NewGroup("booster", "", true, nil)
		index   = NewGroupIndex()
	)

	index.Add("id-linac", linac)
	index.Add("id-booster", booster)

	got, ok := index.Resolve(Entry{Group: "linac", GroupID: "id-booster"})
	require.True(t, ok)
	require.Same(t, booster, got)

	got, ok = index.Resolve(Entry{Group: "linac", GroupID: "stale-id"})
	require.True(t, ok)
	require.Same(t, linac, got)

	got, ok = index.Resolve(Entry{Group: "linac"})
	require.True(t, ok)
	require.Same(t, linac, got)

	_, ok = index.Resolve(Entry{Group: "storage-ring"})
	require.False(t, ok)
	require.Len(t, index.Groups(), 2)
}

// TestSupportedConditions mirrors the condition registry.
func TestSupportedConditions(t *testing.T) {
	t.Parallel()

	conditions := SupportedConditions()
	require.Len(t, conditions, len(domain.Conditions()))

	supported := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		supported[c.Name] = c.Supported
		require.NotEmpty(t, c.Description, c.Name)
	}

	require.True(t, supported["outofrange"])
	require.True(t, supported["increasingstep"])
	require.False(t, supported["decreasingstep"])
}
