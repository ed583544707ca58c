package telemetry

import (
	"errors"
	"strings"
	"time"
)

// SampleHandler receives a new sample for a PV together with its timestamp.
// Implementations run on the source's callback goroutine and must not block.
type SampleHandler func(value float64, at time.Time)

// Source is an opened subscription to a single process variable.
type Source interface {
	// Name returns the PV name the source is bound to.
	Name() string
	// Connected reports whether the underlying channel is currently reachable.
	Connected() bool
	// Value returns the last received value, if any.
	Value() (float64, bool)
	// Close stops delivering samples and releases the subscription.
	Close() error
}

// SourceFactory opens sources for PV names.
type SourceFactory interface {
	Open(pvName string, onSample SampleHandler) (Source, error)
}

// ErrEmptyPVName is returned when a source is requested for a blank PV name.
var ErrEmptyPVName = errors.New("pv name must be provided")

// NormalizePVName trims the PV name the same way configuration rows are trimmed.
func NormalizePVName(pvName string) (string, error) {
	pvName = strings.TrimSpace(pvName)
	if pvName == "" {
		return "", ErrEmptyPVName
	}

	return pvName, nil
}
