// Package stores provides the persistence layer for registered Qt versions.
// It includes SQLite-based storage with WAL mode, embedded schema
// migrations, and CRUD operations for named Qt installations together with
// the build configuration last read from their qconfig.pri.
package stores
