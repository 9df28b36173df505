// Package recorder implements the optional batch writer that persists
// canonical events to Postgres.
//
// The recorder registers as a hub subscriber: deliveries land in a growable
// in-memory buffer so a slow database never stalls a broadcast, and a
// consumer goroutine drains the buffer into batched inserts.
package recorder
