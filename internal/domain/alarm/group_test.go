package alarm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestGroup_SetEnabled verifies toggling and that only real transitions are logged.
func TestGroup_SetEnabled(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	g := NewGroup("booster", "Booster vacuum", true, zap.New(core).Sugar())

	require.Equal(t, "booster", g.Name())
	require.Equal(t, "Booster vacuum", g.Description())
	require.True(t, g.IsEnabled())

	g.SetEnabled(true)
	require.Zero(t, logs.Len())

	g.SetEnabled(false)
	require.False(t, g.IsEnabled())
	require.Equal(t, 1, logs.Len())
	require.Equal(t, `<Group="booster" enabled=false>`, g.String())
}

// TestGroup_ConcurrentAccess exercises readers and writers together.
func TestGroup_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	g := NewGroup("linac", "", false, nil)

	var wg sync.WaitGroup

	for i := range 32 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			g.SetEnabled(i%2 == 0)
		}()

		go func() {
			defer wg.Done()
			_ = g.IsEnabled()
		}()
	}

	wg.Wait()

	g.SetEnabled(true)
	require.True(t, g.IsEnabled())
}
