// Package alarm contains the alarm evaluation core.
//
// A Group is a shared on/off gate. An Entry binds one process variable to one
// Condition, keeps its debounce timestamp and step level under its own lock,
// and turns violations into Event values offered to a non-blocking queue.
// Conditions form a closed set (see ConditionKind); each kind has a parser and
// an evaluator chosen once when the entry is built.
package alarm
