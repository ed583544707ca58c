// Package mongodb implements document.Repository on MongoDB.
//
// The layout matches the historical mailpy database: database "mailpy-db"
// with the collections "entries", "groups" and "conditions". Entries reference
// their group by name and, after migration, by group_id.
package mongodb
