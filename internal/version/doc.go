// Package version exposes build metadata for pv-alarm.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
// Fields renders them for the start-up log line of the monitor.
package version
