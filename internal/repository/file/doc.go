// Package file implements document.Repository on a single YAML file.
//
// It is meant for standalone installations and tests: the whole dataset is
// read on every call and rewritten on every change.
package file
