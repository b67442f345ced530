// Package crypto implements the symmetric cipher suite consumed by the frame
// codec: AES-256-CBC encryption with PKCS#7 padding, HMAC-SHA256 keyed
// signatures, and HKDF expansion of a negotiated shared secret into the
// session key pair.
//
// The suite is exposed through the ISuite interface so tests and alternative
// protocol revisions can substitute their own primitives.
package crypto
