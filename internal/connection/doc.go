// Package connection owns the upstream WebSocket lifecycle.
//
// Three layers:
//   - Client: one raw WebSocket connection (dial, send, receive channels,
//     forced close).
//   - Prober: throwaway connect→greeting→auth handshake used only to judge
//     whether an endpoint is usable for the configured credentials.
//   - Supervisor: the long-lived task owning one usable endpoint's
//     connection: handshake, default subscription, receive loop, and the
//     hand-off of decoded frames to the classifier and hub.
//
// A supervised connection is touched only by its own supervisor; the prober's sockets
// are always closed before Probe returns.
package connection
