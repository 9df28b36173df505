// Package gateway composes the prober, supervisors, and subscriber hub into
// the top-level feed gateway.
//
// Initialize probes every registry entry once, then starts one supervisor
// per usable endpoint. Endpoints judged unusable (bad credentials, missing
// entitlement, connection limits) are reported, not fatal; initialization
// fails only when no endpoint at all is usable.
package gateway
