package alarm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCondition is returned for condition names outside the registry.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrUnsupportedCondition is returned for recognised but unimplemented conditions.
	ErrUnsupportedCondition = errors.New("condition not supported")
	// ErrMalformedValues is returned when alarm values cannot be parsed.
	ErrMalformedValues = errors.New("malformed alarm values")
	// ErrInvertedRange is returned when a range minimum is not below its maximum.
	ErrInvertedRange = errors.New("min must be lesser than max")
	// ErrUnsortedSteps is returned when step thresholds are not strictly increasing.
	ErrUnsortedSteps = errors.New("step values are not sorted")
	// ErrInvalidTimeout is returned for a negative or non-finite debounce interval.
	ErrInvalidTimeout = errors.New("invalid email timeout")
	// ErrMissingGroup is returned when an entry is built without a group.
	ErrMissingGroup = errors.New("entry group is not set")
	// ErrSourceUnavailable wraps failures to open the telemetry source.
	ErrSourceUnavailable = errors.New("telemetry source unavailable")
)

// ConfigurationError reports why an entry could not be built from its configuration row.
// The entry is never created; callers log the error and move on to the next row.
type ConfigurationError struct {
	// PVName identifies the row that failed.
	PVName string
	// Field is the configuration field at fault.
	Field string
	// Value is the offending raw value.
	Value string
	// Err is the underlying cause, usually one of the package sentinels.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot create entry for %q: %v", e.PVName, e.Err)
	}

	return fmt.Sprintf("cannot create entry for %q: %s %q: %v", e.PVName, e.Field, e.Value, e.Err)
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err carries a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError

	return errors.As(err, &cfgErr)
}
