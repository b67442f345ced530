package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mklatt/chatwire/session/codec"
	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/crypto"
)

// --------------------------------------------------------------------------
// Wire Kinds
// --------------------------------------------------------------------------

// WireKind selects the binary frame prefix identifying the message class.
type WireKind byte

const (
	KindDebug       WireKind = 1
	KindQueryResend WireKind = 2
	KindMessage     WireKind = 16
	KindGroup       WireKind = 20
)

// binaryFlag marks the second prefix byte of every binary frame.
const binaryFlag byte = 0x80

// Prefix returns the two prefix bytes inserted between the tag separator and
// the signature of a binary frame.
func (k WireKind) Prefix() []byte {
	return []byte{byte(k), binaryFlag}
}

// --------------------------------------------------------------------------
// Liveness Frames
// --------------------------------------------------------------------------

// ProbeFrame is the lightweight liveness probe sent by the keep-alive
// watchdog.
var ProbeFrame = []byte("?,,")

// pongMarker is the first byte of a keep-alive pong.
const pongMarker = '!'

// Classify inspects an inbound frame. A frame whose first byte is the pong
// marker is a keep-alive pong carrying a millisecond timestamp (pong=true);
// everything else is an encoded payload for Decode.
func Classify(raw []byte) (timestamp int64, pong bool) {
	if len(raw) == 0 || raw[0] != pongMarker {
		return 0, false
	}
	// A malformed timestamp still counts as a pong, the traffic itself is
	// the liveness signal.
	timestamp, _ = strconv.ParseInt(string(raw[1:]), 10, 64)
	return timestamp, true
}

// --------------------------------------------------------------------------
// Frame Codec
// --------------------------------------------------------------------------

// FrameCodec builds outbound wire frames and decodes inbound payload frames.
// It composes the binary node codec and the cipher suite; AuthInfo is passed
// per call since keys may be replaced mid-session.
type FrameCodec struct {
	nodeCodec codec.ICodec
	suite     crypto.ISuite
}

// NewFrameCodec creates a frame codec from a node codec and a cipher suite.
func NewFrameCodec(nodeCodec codec.ICodec, suite crypto.ISuite) *FrameCodec {
	return &FrameCodec{
		nodeCodec: nodeCodec,
		suite:     suite,
	}
}

// EncodePlain builds a plain-text frame: "<tag>,<JSON payload>".
func (f *FrameCodec) EncodePlain(tag string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(tag)+1+len(body))
	frame = append(frame, tag...)
	frame = append(frame, ',')
	frame = append(frame, body...)
	return frame, nil
}

// EncodeBinary builds an encrypted binary frame:
// "<tag>," + kind prefix + signature + ciphertext. The payload must be a
// message tree node and keys must have been supplied, both checked before
// any serialization work.
func (f *FrameCodec) EncodeBinary(tag string, payload any, kind WireKind, auth *common.AuthInfo) ([]byte, error) {
	node, ok := asNode(payload)
	if !ok {
		return nil, common.ErrInvalidPayloadType
	}
	if !auth.Valid() {
		return nil, common.ErrEncryptionKeyMissing
	}

	plain, err := f.nodeCodec.Marshal(node)
	if err != nil {
		return nil, err
	}

	ciphertext, err := f.suite.Encrypt(plain, auth.EncKey)
	if err != nil {
		return nil, err
	}
	signature := f.suite.Sign(ciphertext, auth.MacKey)

	prefix := kind.Prefix()
	frame := make([]byte, 0, len(tag)+1+len(prefix)+len(signature)+len(ciphertext))
	frame = append(frame, tag...)
	frame = append(frame, ',')
	frame = append(frame, prefix...)
	frame = append(frame, signature...)
	frame = append(frame, ciphertext...)
	return frame, nil
}

// Decode splits an inbound payload frame into its tag and decoded payload.
// JSON bodies are decoded directly; binary bodies are verified and decrypted
// with the current keys and unmarshalled into a node. Any failure is
// surfaced to the caller, a decode error means the cipher stream can no
// longer be trusted.
func (f *FrameCodec) Decode(raw []byte, auth *common.AuthInfo) (string, any, error) {
	sep := bytes.IndexByte(raw, ',')
	if sep < 0 {
		return "", nil, fmt.Errorf("malformed frame: missing tag separator")
	}

	tag := string(raw[:sep])
	body := raw[sep+1:]

	if len(body) == 0 {
		return tag, nil, nil
	}

	// Plain-text frames carry a JSON body. The first byte alone cannot
	// settle the frame class: a binary body starts with its signature, whose
	// bytes are uniformly distributed and may look like the start of JSON.
	// A failed parse therefore falls through to the binary path instead of
	// condemning the frame.
	if body[0] == '[' || body[0] == '{' || body[0] == '"' {
		var payload any
		if err := json.Unmarshal(body, &payload); err == nil {
			return tag, payload, nil
		}
	}

	// Everything else is signature + ciphertext
	if !auth.Valid() {
		return tag, nil, common.ErrEncryptionKeyMissing
	}

	sigSize := f.suite.SignatureSize()
	if len(body) <= sigSize {
		return tag, nil, fmt.Errorf("binary frame too short (%d bytes)", len(body))
	}

	signature := body[:sigSize]
	ciphertext := body[sigSize:]

	if !f.suite.Verify(ciphertext, signature, auth.MacKey) {
		return tag, nil, fmt.Errorf("invalid frame signature")
	}

	plain, err := f.suite.Decrypt(ciphertext, auth.EncKey)
	if err != nil {
		return tag, nil, fmt.Errorf("failed to decrypt frame: %v", err)
	}

	node := &common.Node{}
	if err := f.nodeCodec.Unmarshal(plain, node); err != nil {
		return tag, nil, fmt.Errorf("failed to decode frame body: %v", err)
	}
	return tag, node, nil
}

// asNode accepts both node values and node pointers as binary payloads
func asNode(payload any) (common.Node, bool) {
	switch n := payload.(type) {
	case common.Node:
		return n, true
	case *common.Node:
		if n != nil {
			return *n, true
		}
	}
	return common.Node{}, false
}
