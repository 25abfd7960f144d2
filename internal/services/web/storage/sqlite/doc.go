// Package sqlite stores session snapshots in a SQLite database so paging
// survives a restart of the web service.
package sqlite
