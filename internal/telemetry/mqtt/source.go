package mqtt

import (
	"sync"
	"time"

	"github.com/oshokin/pv-alarm/internal/telemetry"
)

// source is a single subscriber of a PV topic.
type source struct {
	// name is the PV name.
	name string
	// topic is the broker topic carrying the PV.
	topic string
	// onSample receives every decoded sample.
	onSample telemetry.SampleHandler
	// isOpen reports the state of the shared broker connection.
	isOpen func() bool
	// release detaches the source from its factory.
	release func(*source) error

	// mu guards the cached value.
	mu sync.Mutex
	// value is the latest received sample.
	value float64
	// hasValue is true once a sample has been received.
	hasValue bool
	// closed marks a released source.
	closed bool
}

// Name returns the PV name.
func (s *source) Name() string {
	return s.name
}

// Connected reports whether the broker connection is usable.
func (s *source) Connected() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	return !closed && s.isOpen()
}

// Value returns the latest sample.
func (s *source) Value() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.hasValue
}

// Close unsubscribes the source. Closing twice is a no-op.
func (s *source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	return s.release(s)
}

// deliver caches the sample and forwards it to the subscriber.
func (s *source) deliver(value float64, at time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.value, s.hasValue = value, true
	s.mu.Unlock()

	s.onSample(value, at)
}

// String implements fmt.Stringer.
func (s *source) String() string {
	return "<MQTTPV pvname=" + s.name + " topic=" + s.topic + ">"
}
