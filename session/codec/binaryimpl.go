package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mklatt/chatwire/session/common"
)

// NewBinaryCodec creates a new codec using a custom binary format
// optimized for speed and efficiency
func NewBinaryCodec() ICodec {
	return &binaryCodecImpl{}
}

// binaryCodecImpl implements ICodec using a custom binary format
type binaryCodecImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasAttrs    byte = 1 << 0
	hasChildren byte = 1 << 1
	hasBlob     byte = 1 << 2
	hasText     byte = 1 << 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (c binaryCodecImpl) Marshal(n common.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c binaryCodecImpl) Unmarshal(data []byte, n *common.Node) error {
	node, pos, err := readNode(data, 0)
	if err != nil {
		return err
	}
	if pos != len(data) {
		return fmt.Errorf("trailing data after node (%d bytes)", len(data)-pos)
	}
	*n = node
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeNode appends the encoded node to buf
func writeNode(buf *bytes.Buffer, n common.Node) error {
	// Compute flags byte
	var flags byte
	if len(n.Attrs) > 0 {
		flags |= hasAttrs
	}
	switch content := n.Content.(type) {
	case nil:
	case []common.Node:
		flags |= hasChildren
	case []byte:
		flags |= hasBlob
	case string:
		flags |= hasText
	default:
		return fmt.Errorf("unsupported node content type %T", content)
	}
	buf.WriteByte(flags)

	// Header is always present
	writeBytes(buf, []byte(n.Header))

	// Attributes
	if flags&hasAttrs != 0 {
		writeUint32(buf, uint32(len(n.Attrs)))
		for key, value := range n.Attrs {
			writeBytes(buf, []byte(key))
			writeBytes(buf, []byte(value))
		}
	}

	// Content
	switch content := n.Content.(type) {
	case []common.Node:
		writeUint32(buf, uint32(len(content)))
		for _, child := range content {
			if err := writeNode(buf, child); err != nil {
				return err
			}
		}
	case []byte:
		writeBytes(buf, content)
	case string:
		writeBytes(buf, []byte(content))
	}

	return nil
}

// readNode decodes one node starting at pos and returns the new position
func readNode(data []byte, pos int) (common.Node, int, error) {
	var n common.Node

	if pos >= len(data) {
		return n, pos, fmt.Errorf("data too short for node flags")
	}
	flags := data[pos]
	pos++

	// Header
	header, pos, err := readBytes(data, pos, "header")
	if err != nil {
		return n, pos, err
	}
	n.Header = string(header)

	// Attributes
	if flags&hasAttrs != 0 {
		count, newPos, err := readUint32(data, pos, "attr count")
		if err != nil {
			return n, newPos, err
		}
		pos = newPos

		n.Attrs = make(map[string]string, count)
		for i := uint32(0); i < count; i++ {
			key, newPos, err := readBytes(data, pos, "attr key")
			if err != nil {
				return n, newPos, err
			}
			pos = newPos

			value, newPos, err := readBytes(data, pos, "attr value")
			if err != nil {
				return n, newPos, err
			}
			pos = newPos

			n.Attrs[string(key)] = string(value)
		}
	}

	// Content
	switch {
	case flags&hasChildren != 0:
		count, newPos, err := readUint32(data, pos, "child count")
		if err != nil {
			return n, newPos, err
		}
		pos = newPos

		children := make([]common.Node, 0, count)
		for i := uint32(0); i < count; i++ {
			child, newPos, err := readNode(data, pos)
			if err != nil {
				return n, newPos, err
			}
			pos = newPos
			children = append(children, child)
		}
		n.Content = children

	case flags&hasBlob != 0:
		blob, newPos, err := readBytes(data, pos, "blob content")
		if err != nil {
			return n, newPos, err
		}
		pos = newPos
		// Copy so the node does not alias the frame buffer
		n.Content = append([]byte(nil), blob...)

	case flags&hasText != 0:
		text, newPos, err := readBytes(data, pos, "text content")
		if err != nil {
			return n, newPos, err
		}
		pos = newPos
		n.Content = string(text)
	}

	return n, pos, nil
}

// writeUint32 appends a big endian uint32 to buf
func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// writeBytes appends a length-prefixed byte slice to buf
func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

// readUint32 reads a big endian uint32 at pos
func readUint32(data []byte, pos int, what string) (uint32, int, error) {
	if pos+4 > len(data) {
		return 0, pos, fmt.Errorf("data too short for %s", what)
	}
	return binary.BigEndian.Uint32(data[pos : pos+4]), pos + 4, nil
}

// readBytes reads a length-prefixed byte slice at pos
func readBytes(data []byte, pos int, what string) ([]byte, int, error) {
	length, pos, err := readUint32(data, pos, what+" length")
	if err != nil {
		return nil, pos, err
	}
	if pos+int(length) > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s", what)
	}
	return data[pos : pos+int(length)], pos + int(length), nil
}
