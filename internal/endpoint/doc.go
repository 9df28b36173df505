// Package endpoint holds the static catalog of candidate upstream feeds.
//
// The registry is pure data: each entry describes one WebSocket endpoint
// (address, default symbol set, whether authentication is required). Which
// entries are actually usable for the configured credentials is decided at
// runtime by the prober, never here.
package endpoint
