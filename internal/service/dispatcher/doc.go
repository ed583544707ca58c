// Package dispatcher drains the event queue in FIFO order and hands every
// event to the configured notifiers.
//
// Delivery is best effort: a failing notifier is logged and the event moves
// on to the next notifier. Nothing is retried.
package dispatcher
