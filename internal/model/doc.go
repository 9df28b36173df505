// Package model defines the canonical event type shared across the gateway.
//
// A canonical event is the protocol-agnostic representation of one
// market-data or account update. Events are created once by the classifier,
// never mutated afterward, and discarded after broadcast.
//
// Conventions:
//   - Prices and sizes: float64, passed through from the wire unmodified
//     (no rounding, no currency conversion)
//   - Timestamps: time.Time, serialized as ISO-8601 UTC
package model
