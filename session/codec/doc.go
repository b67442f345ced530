// Package codec provides serializers for the structured message tree
// (common.Node) exchanged with the server.
//
// Two implementations are provided:
//
//   - JSON: encodes a node as the three-element array ["header", {attrs},
//     content], the representation used by plain-text frames.
//
//   - Binary: a compact flag-byte format used as the cleartext of encrypted
//     frames, optimized for speed and efficiency.
//
// Both implement the ICodec interface so the frame codec and tests can use
// them interchangeably.
package codec
