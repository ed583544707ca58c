package alarm

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// errOpenFailed is returned by fakeFactory when configured to fail.
var errOpenFailed = errors.New("channel access unavailable")

// fakeSource is a controllable telemetry source.
type fakeSource struct {
	name string

	mu        sync.Mutex
	connected bool
	value     float64
	hasValue  bool
	closed    bool
	handler   telemetry.SampleHandler
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *fakeSource) Value() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.hasValue
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// push stores the value and invokes the callback like a real subscription would.
func (s *fakeSource) push(value float64, at time.Time) {
	s.mu.Lock()
	s.value, s.hasValue = value, true
	handler := s.handler
	s.mu.Unlock()

	handler(value, at)
}

func (s *fakeSource) setConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = connected
}

// fakeFactory hands out a single connected fakeSource.
type fakeFactory struct {
	source *fakeSource
	fail   bool
}

func (f *fakeFactory) Open(pvName string, onSample telemetry.SampleHandler) (telemetry.Source, error) {
	if f.fail {
		return nil, errOpenFailed
	}

	f.source = &fakeSource{name: pvName, connected: true, handler: onSample}

	return f.source, nil
}

// recordingQueue stores accepted events and can simulate a full queue.
type recordingQueue struct {
	mu     sync.Mutex
	full   bool
	events []Event
}

func (q *recordingQueue) TryEnqueue(event Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.full {
		return false
	}

	q.events = append(q.events, event)

	return true
}

func (q *recordingQueue) snapshot() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]Event(nil), q.events...)
}

// baseTime is a fixed reference instant for deterministic debounce tests.
//
//nolint:gochecknoglobals // Test fixture.
var baseTime = time.Date(2026, time.October, 17, 8, 0, 0, 0, time.UTC)

// fixedClock returns a clock stuck at baseTime.
func fixedClock() time.Time {
	return baseTime
}

// nan returns a quiet NaN.
func nan() float64 {
	return math.NaN()
}
