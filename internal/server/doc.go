// Package server implements the WebSocket transport for guildchat.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, metrics and HTTP handlers. The Hub owns
// the presence registry and the event dispatcher from package realtime and
// is the Broadcaster both publish through; every frame on the wire is a JSON
// {"event", "data"} object.
package server
