// Package sink provides out-of-process subscriber sinks.
//
// The NATS publisher forwards canonical events to a subject tree
// (<prefix>.<source>.<symbol>) with core NATS fire-and-forget semantics; no
// delivery or persistence guarantee is added on top of the hub's contract.
package sink
