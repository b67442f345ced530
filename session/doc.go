// Package session implements a stateful client for an encrypted, binary-framed
// messaging protocol spoken over a single persistent socket. It owns the full
// connection lifecycle: opening the transport, correlating requests with
// responses, routing unsolicited server pushes, probing for silent network
// death and tearing the connection down exactly once with a classified reason.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures shared across the client, including the
//     message tree node, session key material, status helpers, disconnect
//     reasons, configuration and logging.
//
//   - codec: Message tree serialization with multiple format options (Binary,
//     JSON) for converting between nodes and byte arrays.
//
//   - crypto: The symmetric cipher suite (AES-256-CBC + HMAC-SHA256) and the
//     HKDF session key derivation used for encrypted frames.
//
//   - wire: The frame layer: correlation tag generation, frame kinds, the
//     keep-alive probe and pong formats, and the codec that assembles and
//     parses complete frames.
//
//   - router: Tag-indexed one-shot response waiters and key-based wildcard
//     subscriptions for unsolicited events.
//
//   - transport: The frame transport abstraction with a websocket
//     implementation.
//
//   - conn: The socket itself: connection lifecycle, the query correlator,
//     the keep-alive watchdog and the reference-counted remote liveness
//     monitor.
package session
