// Package repository defines the data access interfaces for spheremap.
//
// The remote map API owns the canonical data. Locally only the raw payload
// of the last successful full-map fetch is kept per organization, so a
// restarted server can draw the map before its first fetch completes.
//
// # SQLite Implementation
//
// The sqlite subpackage implements SnapshotRepository on the pure Go
// modernc.org/sqlite driver with WAL mode. The schema is migrated on open.
package repository
