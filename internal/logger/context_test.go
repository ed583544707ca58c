package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal verifies that an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithKV_AttachesFields ensures key-value pairs travel with the scoped logger.
func TestWithKV_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithKV(WithName(ctx, "monitor"), "pvname", "SI-13C4:DI-DCCT:Current-Mon")
	InfoKV(ctx, "Entry loaded", "group", "storage-ring")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "monitor", entries[0].LoggerName)
	require.Equal(t, "SI-13C4:DI-DCCT:Current-Mon", entries[0].ContextMap()["pvname"])
	require.Equal(t, "storage-ring", entries[0].ContextMap()["group"])
}
