package codec

import (
	"reflect"
	"testing"

	"github.com/mklatt/chatwire/session/common"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"JSON":   NewJSONCodec,
	"Binary": NewBinaryCodec,
}

// testNodes creates a set of test nodes with different shapes
func testNodes() []common.Node {
	return []common.Node{
		// Bare header
		{Header: "action"},

		// Header with attributes
		{
			Header: "Cmd",
			Attrs:  map[string]string{"type": "disconnect", "kind": "replaced"},
		},

		// Text content
		{
			Header:  "presence",
			Attrs:   map[string]string{"id": "123"},
			Content: "available",
		},

		// Blob content
		{
			Header:  "media",
			Content: []byte{0x00, 0x01, 0xfe, 0xff},
		},

		// Nested children
		{
			Header: "action",
			Attrs:  map[string]string{"type": "set"},
			Content: []common.Node{
				{Header: "query", Attrs: map[string]string{"epoch": "7"}},
				{Header: "presence", Content: "unavailable"},
			},
		},
	}
}

// TestCodecRoundTrip tests that nodes survive a marshal/unmarshal cycle
func TestCodecRoundTrip(t *testing.T) {
	nodes := testNodes()

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, node := range nodes {
				data, err := c.Marshal(node)
				if err != nil {
					t.Errorf("Failed to marshal node %d: %v", i, err)
					continue
				}

				var result common.Node
				if err := c.Unmarshal(data, &result); err != nil {
					t.Errorf("Failed to unmarshal node %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(node, result) {
					t.Errorf("Node %d round trip mismatch:\nsent:     %+v\nreceived: %+v", i, node, result)
				}
			}
		})
	}
}

// TestBinaryCodecRejectsTruncatedInput tests bounds checks on short input
func TestBinaryCodecRejectsTruncatedInput(t *testing.T) {
	c := NewBinaryCodec()

	data, err := c.Marshal(common.Node{Header: "action", Attrs: map[string]string{"type": "get"}})
	if err != nil {
		t.Fatalf("Failed to marshal node: %v", err)
	}

	for cut := 1; cut < len(data); cut++ {
		var n common.Node
		if err := c.Unmarshal(data[:cut], &n); err == nil {
			t.Errorf("Expected error for input truncated to %d bytes", cut)
		}
	}
}

// TestJSONCodecRepresentation pins the array shape of the JSON encoding
func TestJSONCodecRepresentation(t *testing.T) {
	c := NewJSONCodec()

	data, err := c.Marshal(common.Node{Header: "admin", Content: "test"})
	if err != nil {
		t.Fatalf("Failed to marshal node: %v", err)
	}

	want := `["admin",null,"test"]`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}
