// Package telemetry defines how alarm entries observe process variables.
//
// A SourceFactory opens one Source per PV and pushes every new sample to the
// SampleHandler supplied at open time. Sources also report connectivity and the
// last known value, which the manual trigger path reads. Dummy provides a
// stand-in that never connects, used by tools that only validate configuration.
package telemetry
