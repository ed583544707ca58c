// Package monitor builds live groups and entries from the configuration
// repository and keeps them running.
//
// Loading skips every row that fails validation and reports it, so one bad row
// never prevents the rest from being monitored. While running, the monitor
// periodically re-triggers every entry and pulls group switches back from the
// repository so administrative changes made by other processes take effect.
package monitor
