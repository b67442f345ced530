package ws

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/mklatt/chatwire/session/common"
)

// echoServer upgrades incoming connections and echoes every message back
func echoServer(t *testing.T, gotOrigin *string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotOrigin != nil {
			*gotOrigin = r.Header.Get("Origin")
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// TestDialWriteRead tests a frame round trip over a loopback server
func TestDialWriteRead(t *testing.T) {
	var gotOrigin string
	server := echoServer(t, &gotOrigin)
	defer server.Close()

	config := common.DefaultClientConfig()
	config.Endpoint = wsURL(server)
	config.Origin = "https://example.com"

	tr := NewWSTransport()
	if err := tr.Dial(config); err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer tr.Close()

	if !tr.Writable() {
		t.Error("Expected transport to be writable after dial")
	}
	if gotOrigin != "https://example.com" {
		t.Errorf("Expected origin header, got %q", gotOrigin)
	}

	frame := []byte(`123.--1,["admin","test"]`)
	if err := tr.WriteFrame(frame); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	echoed, err := tr.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if !bytes.Equal(frame, echoed) {
		t.Errorf("Expected %q, got %q", frame, echoed)
	}
}

// TestCloseIsIdempotent tests double close and post-close writes
func TestCloseIsIdempotent(t *testing.T) {
	server := echoServer(t, nil)
	defer server.Close()

	config := common.DefaultClientConfig()
	config.Endpoint = wsURL(server)

	tr := NewWSTransport()
	if err := tr.Dial(config); err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Unexpected error on close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Unexpected error on second close: %v", err)
	}

	if tr.Writable() {
		t.Error("Expected transport to not be writable after close")
	}
	if err := tr.WriteFrame([]byte("x")); err == nil {
		t.Error("Expected error writing to closed transport")
	}
}

// TestWriteBeforeDial tests the not-connected precondition
func TestWriteBeforeDial(t *testing.T) {
	tr := NewWSTransport()

	if tr.Writable() {
		t.Error("Expected fresh transport to not be writable")
	}
	if err := tr.WriteFrame([]byte("x")); err == nil {
		t.Error("Expected error writing before dial")
	}
}
