// Package queue provides the bounded FIFO used to hand events from alarm
// evaluation over to the dispatcher.
//
// Producers never block: TryEnqueue reports false when the buffer is full and
// the caller decides what to do with the dropped item.
package queue
