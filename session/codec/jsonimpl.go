package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mklatt/chatwire/session/common"
)

// NewJSONCodec creates a new codec using the three-element array
// representation ["header", {attrs}, content] used by plain-text frames.
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements ICodec using encoding/json
type jsonCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (c jsonCodecImpl) Marshal(n common.Node) ([]byte, error) {
	arr, err := nodeToArray(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(arr)
}

func (c jsonCodecImpl) Unmarshal(b []byte, n *common.Node) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	node, err := arrayToNode(arr)
	if err != nil {
		return err
	}
	*n = node
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// nodeToArray converts a node into its array representation
func nodeToArray(n common.Node) ([]any, error) {
	arr := []any{n.Header}

	if n.Attrs != nil {
		arr = append(arr, n.Attrs)
	} else {
		arr = append(arr, nil)
	}

	switch content := n.Content.(type) {
	case nil:
		arr = append(arr, nil)
	case string:
		arr = append(arr, content)
	case []byte:
		// binary blobs are not valid JSON, wrap them as base64
		arr = append(arr, map[string]string{"blob": base64.StdEncoding.EncodeToString(content)})
	case []common.Node:
		children := make([]any, 0, len(content))
		for _, child := range content {
			childArr, err := nodeToArray(child)
			if err != nil {
				return nil, err
			}
			children = append(children, childArr)
		}
		arr = append(arr, children)
	default:
		return nil, fmt.Errorf("unsupported node content type %T", content)
	}

	return arr, nil
}

// arrayToNode converts the raw array representation back into a node
func arrayToNode(arr []json.RawMessage) (common.Node, error) {
	var n common.Node

	if len(arr) == 0 {
		return n, fmt.Errorf("empty node array")
	}

	if err := json.Unmarshal(arr[0], &n.Header); err != nil {
		return n, fmt.Errorf("invalid node header: %v", err)
	}

	if len(arr) > 1 && string(arr[1]) != "null" {
		if err := json.Unmarshal(arr[1], &n.Attrs); err != nil {
			return n, fmt.Errorf("invalid node attrs: %v", err)
		}
	}

	if len(arr) > 2 && string(arr[2]) != "null" {
		content, err := decodeContent(arr[2])
		if err != nil {
			return n, err
		}
		n.Content = content
	}

	return n, nil
}

// decodeContent decodes the third array element into string, blob or children
func decodeContent(raw json.RawMessage) (any, error) {
	// Try plain string content first
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	// Then the base64 blob wrapper
	var blob map[string]string
	if err := json.Unmarshal(raw, &blob); err == nil {
		if b64, ok := blob["blob"]; ok {
			data, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return nil, fmt.Errorf("invalid blob content: %v", err)
			}
			return data, nil
		}
		return nil, fmt.Errorf("unknown object content")
	}

	// Finally a list of child nodes
	var childArrs [][]json.RawMessage
	if err := json.Unmarshal(raw, &childArrs); err != nil {
		return nil, fmt.Errorf("invalid node content: %v", err)
	}

	children := make([]common.Node, 0, len(childArrs))
	for _, childArr := range childArrs {
		child, err := arrayToNode(childArr)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
