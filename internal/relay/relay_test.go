package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newRelayServer(t *testing.T, cfg Config) (*Relay, string) {
	t.Helper()
	rly := New(NewRegistry(), cfg)
	server := httptest.NewServer(http.HandlerFunc(rly.HandleConnection))
	t.Cleanup(server.Close)
	return rly, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var envelope Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func waitForConnections(t *testing.T, rly *Relay, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rly.ConnectionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", want, rly.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastReachesAllConnectionsIncludingSender(t *testing.T) {
	rly, url := newRelayServer(t, Config{})

	sender := dial(t, url)
	second := dial(t, url)
	third := dial(t, url)
	waitForConnections(t, rly, 3)

	payload := `{"section":"projects","action":"updated"}`
	if err := sender.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"sender": sender, "second": second, "third": third} {
		envelope := readEnvelope(t, conn)
		if envelope.Type != "update" {
			t.Fatalf("%s: unexpected envelope type %q", name, envelope.Type)
		}
		if string(envelope.Data) != payload {
			t.Fatalf("%s: unexpected data %s", name, envelope.Data)
		}
	}
}

func TestBroadcastCanExcludeSender(t *testing.T) {
	rly, url := newRelayServer(t, Config{ExcludeSender: true})

	sender := dial(t, url)
	receiver := dial(t, url)
	waitForConnections(t, rly, 2)

	if err := sender.WriteMessage(websocket.TextMessage, []byte(`{"n":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	envelope := readEnvelope(t, receiver)
	if string(envelope.Data) != `{"n":1}` {
		t.Fatalf("unexpected data %s", envelope.Data)
	}

	_ = sender.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := sender.ReadMessage(); err == nil {
		t.Fatal("sender received its own frame despite exclusion")
	}
}

func TestMalformedFrameIsDroppedSilently(t *testing.T) {
	rly, url := newRelayServer(t, Config{})

	sender := dial(t, url)
	receiver := dial(t, url)
	waitForConnections(t, rly, 2)

	if err := sender.WriteMessage(websocket.TextMessage, []byte("not json {{")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Frames are processed in arrival order, so anything broadcast for the
	// malformed frame would reach the receiver ahead of this valid one. The
	// sending connection staying writable also proves it was not closed.
	if err := sender.WriteMessage(websocket.TextMessage, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("write after malformed frame: %v", err)
	}

	envelope := readEnvelope(t, receiver)
	if envelope.Type != "update" {
		t.Fatalf("unexpected envelope type %q", envelope.Type)
	}
	if string(envelope.Data) != `{"ok":true}` {
		t.Fatalf("expected the valid frame first, got %s", envelope.Data)
	}
	if rly.ConnectionCount() != 2 {
		t.Fatalf("expected 2 connections, have %d", rly.ConnectionCount())
	}
}

func TestClosedConnectionLeavesBroadcastSet(t *testing.T) {
	rly, url := newRelayServer(t, Config{})

	leaver := dial(t, url)
	sender := dial(t, url)
	receiver := dial(t, url)
	waitForConnections(t, rly, 3)

	_ = leaver.Close()
	waitForConnections(t, rly, 2)

	if err := sender.WriteMessage(websocket.TextMessage, []byte(`{"still":"works"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	envelope := readEnvelope(t, receiver)
	if string(envelope.Data) != `{"still":"works"}` {
		t.Fatalf("unexpected data %s", envelope.Data)
	}
}

func TestPublishBroadcastsServerOriginatedUpdates(t *testing.T) {
	rly, url := newRelayServer(t, Config{})

	first := dial(t, url)
	second := dial(t, url)
	waitForConnections(t, rly, 2)

	rly.Publish(json.RawMessage(`{"section":"content"}`))

	for _, conn := range []*websocket.Conn{first, second} {
		envelope := readEnvelope(t, conn)
		if envelope.Type != "update" || string(envelope.Data) != `{"section":"content"}` {
			t.Fatalf("unexpected envelope %+v", envelope)
		}
	}
}
