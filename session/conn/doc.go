// Package conn implements the stateful session connection: transport
// lifecycle (open, keep-alive, terminate), the tag-based query correlator
// supporting many concurrent in-flight queries, the keep-alive watchdog
// detecting silent network death, and the reference-counted remote liveness
// monitor distinguishing "server unreachable" from "remote peer application
// unreachable".
//
// A Socket owns exactly one transport connection. It is torn down exactly
// once, idempotently, with a classified disconnect reason chosen by the
// first trigger to fire; no state survives into a reconnect, callers create
// a fresh Socket instead.
package conn
