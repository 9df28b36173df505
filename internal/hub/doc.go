// Package hub implements fan-out of canonical events to downstream
// subscribers.
//
// Broadcast snapshots the subscriber set, then delivers the event to each
// subscriber concurrently with a per-subscriber send timeout. A slow or
// broken subscriber never blocks the others and never surfaces an error to
// the broadcaster; it is removed from the set instead.
package hub
