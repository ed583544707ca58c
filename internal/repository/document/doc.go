// Package document defines the persisted configuration records (groups,
// entries and conditions) and the Repository contract implemented by the
// MongoDB and file backends.
//
// Records are plain data. Conversion into live domain objects happens in
// this package so both backends share the same trimming and resolution rules.
package document
