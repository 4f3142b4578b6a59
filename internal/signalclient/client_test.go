package signalclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startEchoServer runs a websocket endpoint that hands each accepted
// connection to serve.
func startEchoServer(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectDeliversIncomingAndCloseCode(t *testing.T) {
	url := startEchoServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(&protocol.Message{Type: protocol.TypeJoin, JoinedAs: protocol.JoinedFirst})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(protocol.CloseRoomFull, "room full"))
		// Wait for the client's close response before dropping.
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		conn.ReadMessage()
		conn.Close()
	})

	c := New(url)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case msg := <-c.Incoming():
		if msg.Type != protocol.TypeJoin || msg.JoinedAs != protocol.JoinedFirst {
			t.Fatalf("incoming = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no incoming message")
	}

	// The stream closes and the close code is preserved.
	select {
	case msg, ok := <-c.Incoming():
		if ok {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("incoming not closed")
	}
	if got := c.CloseCode(); got != protocol.CloseRoomFull {
		t.Fatalf("close code = %d, want %d", got, protocol.CloseRoomFull)
	}
}

func TestCloseFlushesQueuedMessages(t *testing.T) {
	received := make(chan *protocol.Message, 1)
	closed := make(chan int, 1)

	url := startEchoServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		received <- &msg
		_, _, err := conn.ReadMessage()
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			closed <- ce.Code
		}
	})

	c := New(url)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Hang up: the queued message must reach the server ahead of the
	// close frame.
	c.Send(&protocol.Message{Type: protocol.TypeCallEnded})
	c.Close()

	select {
	case msg := <-received:
		if msg.Type != protocol.TypeCallEnded {
			t.Fatalf("server got %+v, want call-ended", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("queued message never flushed")
	}

	select {
	case code := <-closed:
		if code != websocket.CloseNormalClosure {
			t.Fatalf("close code = %d, want normal closure", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("close frame never arrived")
	}
}
