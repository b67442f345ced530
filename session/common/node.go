package common

import (
	"encoding/json"
	"strconv"
)

// --------------------------------------------------------------------------
// Payload Tree
// --------------------------------------------------------------------------

// Node is a single element of the structured message tree exchanged with the
// server. A node has a header token, an optional attribute map and optional
// content. Content is either nil, a []Node (nested nodes), a []byte blob or
// a plain string.
type Node struct {
	Header  string
	Attrs   map[string]string
	Content any
}

// Attr returns the value of the named attribute or "" if absent.
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Children returns the nested child nodes, or nil if the content is not a
// node list.
func (n *Node) Children() []Node {
	children, _ := n.Content.([]Node)
	return children
}

// ChildHeader returns the header token of the first nested child node. It is
// the secondary header token used for wildcard event routing.
func (n *Node) ChildHeader() string {
	if children := n.Children(); len(children) > 0 {
		return children[0].Header
	}
	return ""
}

// --------------------------------------------------------------------------
// Authentication Keys
// --------------------------------------------------------------------------

// AuthInfo holds the symmetric key material consumed by encrypted sends and
// inbound frame decryption. It is absent until supplied externally after the
// handshake; once set it is replaced atomically, never partially updated.
type AuthInfo struct {
	EncKey []byte // encryption key (AES-256)
	MacKey []byte // signing key (HMAC-SHA256)
}

// Valid reports whether both keys are present.
func (a *AuthInfo) Valid() bool {
	return a != nil && len(a.EncKey) > 0 && len(a.MacKey) > 0
}

// --------------------------------------------------------------------------
// Status Extraction
// --------------------------------------------------------------------------

// DefaultStatus is assumed for responses that carry no status field.
const DefaultStatus = 200

// StatusOf extracts the numeric status from a response payload. JSON object
// payloads use the "status" member, node payloads use the "status" attribute.
// Payloads without a status are treated as DefaultStatus.
func StatusOf(payload any) int {
	switch p := payload.(type) {
	case *Node:
		if s := p.Attr("status"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				return v
			}
		}
	case Node:
		return StatusOf(&p)
	case map[string]any:
		if raw, ok := p["status"]; ok {
			switch v := raw.(type) {
			case float64:
				return int(v)
			case int:
				return v
			case json.Number:
				if i, err := v.Int64(); err == nil {
					return int(i)
				}
			case string:
				if i, err := strconv.Atoi(v); err == nil {
					return i
				}
			}
		}
	}
	return DefaultStatus
}

// IsSuccessStatus reports whether status is a 2xx-class value.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
