package integration

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// feedSource is a connected source fed by the test.
type feedSource struct {
	name    string
	handler telemetry.SampleHandler

	mu    sync.Mutex
	value float64
	has   bool
}

func (s *feedSource) Name() string    { return s.name }
func (s *feedSource) Connected() bool { return true }
func (s *feedSource) Close() error    { return nil }

func (s *feedSource) Value() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.has
}

// push stores the value and delivers it like a broker callback would.
func (s *feedSource) push(value float64, at time.Time) {
	s.mu.Lock()
	s.value, s.has = value, true
	s.mu.Unlock()

	s.handler(value, at)
}

// feedFactory opens feedSources and keeps them by PV name.
type feedFactory struct {
	mu      sync.Mutex
	sources map[string]*feedSource
}

func newFeedFactory() *feedFactory {
	return &feedFactory{sources: make(map[string]*feedSource)}
}

func (f *feedFactory) Open(pvName string, onSample telemetry.SampleHandler) (telemetry.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := &feedSource{name: pvName, handler: onSample}
	f.sources[pvName] = s

	return s, nil
}

func (f *feedFactory) source(pvName string) *feedSource {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sources[pvName]
}
