// Package storage declares persistence for search session snapshots.
//
// Snapshots hold only pagination coordinates; the results themselves are
// always refetched from the search backend.
package storage
