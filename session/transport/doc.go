// Package transport defines the frame-transport abstraction the session
// client runs on: a single persistent, message-framed connection to a fixed
// endpoint. The ws subpackage provides the production websocket
// implementation; tests substitute in-memory fakes.
package transport
