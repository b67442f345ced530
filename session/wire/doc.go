// Package wire implements the byte-level frame format of the session
// protocol: correlation-tag generation, outbound frame encoding (plain JSON
// and encrypted binary), inbound frame classification (keep-alive pong vs.
// encoded payload) and inbound frame decoding.
//
// Outbound frames:
//
//	plain:  "<tag>,<JSON payload>"
//	binary: "<tag>," + kind prefix + signature + ciphertext
//	probe:  "?,,"
//
// Inbound frames whose first byte is '!' are keep-alive pongs carrying a
// decimal millisecond timestamp; everything else is an encoded payload.
package wire
