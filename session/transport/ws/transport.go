package ws

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/transport"
)

var Logger = logger.GetLogger("transport")

// wsTransport implements the IFrameTransport interface over a websocket
type wsTransport struct {
	writeMu sync.Mutex // serializes writes, single-writer discipline
	conn    *websocket.Conn
	closed  atomic.Bool
}

// NewWSTransport creates a new websocket frame transport
func NewWSTransport() transport.IFrameTransport {
	return &wsTransport{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IFrameTransport)
// --------------------------------------------------------------------------

func (t *wsTransport) GetName() string {
	return "ws"
}

func (t *wsTransport) Dial(config common.ClientConfig) error {
	dialer := websocket.Dialer{
		HandshakeTimeout:  config.ConnectTimeout(),
		EnableCompression: true, // requests permessage-deflate
		Proxy:             http.ProxyFromEnvironment,
	}

	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy url: %v", err)
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	headers := http.Header{}
	headers.Set("Accept-Encoding", "gzip, deflate, br")
	headers.Set("Accept-Language", "en")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Pragma", "no-cache")
	if config.Origin != "" {
		headers.Set("Origin", config.Origin)
	}

	conn, _, err := dialer.Dial(config.Endpoint, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", config.Endpoint, err)
	}

	t.conn = conn
	t.closed.Store(false)

	Logger.Infof("Connected to %s", config.Endpoint)
	return nil
}

func (t *wsTransport) WriteFrame(frame []byte) error {
	if t.conn == nil || t.closed.Load() {
		return common.ErrConnectionClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	if t.conn == nil {
		return nil, common.ErrConnectionClosed
	}

	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Writable() bool {
	return t.conn != nil && !t.closed.Load()
}

func (t *wsTransport) Close() error {
	if t.conn == nil || !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	// Best effort close handshake before dropping the connection
	t.writeMu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()

	return t.conn.Close()
}
