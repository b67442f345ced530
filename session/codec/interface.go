package codec

import "github.com/mklatt/chatwire/session/common"

// ICodec is the interface for all message-tree serializers
type ICodec interface {
	// Marshal serializes a Node into a byte array
	// It returns the serialized byte array and an error if any
	Marshal(n common.Node) ([]byte, error)
	// Unmarshal deserializes a byte array into a Node
	// It takes a byte array and a pointer to a Node as parameters
	// It returns an error if any
	Unmarshal(b []byte, n *common.Node) error
}
