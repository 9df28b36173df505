// Package classify turns raw wire payloads into canonical events.
//
// Decoding is a two-step pipeline:
//  1. An ordered decoder list (msgpack first, JSON fallback) turns one raw
//     payload into decoded frames. Market-data endpoints batch frames as
//     arrays, so one payload can yield several frames.
//  2. A pure mapping keyed on the frame's type discriminator turns each
//     frame into zero or one canonical event.
//
// Unknown discriminators yield zero events and are not an error; that is the
// forward-compatibility contract with protocol additions. The classifier
// performs no I/O and holds no shared state.
package classify
