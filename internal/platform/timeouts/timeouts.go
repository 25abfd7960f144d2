// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// BackendRequest caps one call to the search backend. DBpedia lookups are
// slow, so this is generous compared to the HTTP server limits.
const BackendRequest = 30 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SessionIdle is how long an unused browser search session is kept.
const SessionIdle = 2 * time.Hour
