package transport

import (
	"github.com/mklatt/chatwire/session/common"
)

// IFrameTransport is the interface for the single persistent frame transport
// carrying the session. Implementations must support one concurrent reader
// and serialize concurrent writers so wire ordering is preserved.
type IFrameTransport interface {
	// Dial establishes the connection described by the configuration
	Dial(config common.ClientConfig) error

	// WriteFrame sends one frame. Writes are serialized internally
	WriteFrame(frame []byte) error

	// ReadFrame blocks until the next inbound frame or a transport error
	ReadFrame() ([]byte, error)

	// Writable reports whether the transport can currently accept writes
	Writable() bool

	// Close terminates the connection. Closing twice is a no-op
	Close() error

	// GetName returns the name of the transport type (e.g. "ws")
	GetName() string
}
