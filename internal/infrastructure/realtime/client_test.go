package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubIngestor struct {
	mu  sync.Mutex
	got []ports.IngestInput
}

func (s *stubIngestor) Enqueue(in ports.IngestInput) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, in)
	return true
}

func (s *stubIngestor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type structValidator struct {
	v *validator.Validate
}

func (s structValidator) Validate(i any) error { return s.v.Struct(i) }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, hub *Hub, ingest Ingestor) *httptest.Server {
	t.Helper()
	srv := NewServer(hub, ingest, structValidator{v: validator.New()}, []string{"http://localhost:5173"}, zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = srv.Accept(w, r, nil)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestClient_JoinReceiveLeave(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := newTestServer(t, hub, &stubIngestor{})
	conn := dial(t, ts, nil)
	topic := domain.DeliveryTopic("D1")

	send(t, conn, EventJoinDelivery, map[string]any{"delivery_id": "D1"})
	waitFor(t, "subscription", func() bool { return hub.Subscribers(topic) == 1 })

	hub.Publish(topic, domain.EventTrackingUpdate, domain.TrackingState{DeliveryID: "D1", Lat: 1, Lng: 2})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env struct {
		Event string               `json:"event"`
		Data  domain.TrackingState `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("invalid frame: %v", err)
	}
	if env.Event != domain.EventTrackingUpdate || env.Data.DeliveryID != "D1" || env.Data.Lng != 2 {
		t.Errorf("unexpected frame %s", msg)
	}

	send(t, conn, EventLeaveDelivery, map[string]any{"delivery_id": "D1"})
	waitFor(t, "unsubscribe", func() bool { return hub.Subscribers(topic) == 0 })
}

func TestClient_JoinOrderAcceptsNumericID(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := newTestServer(t, hub, &stubIngestor{})
	conn := dial(t, ts, nil)

	send(t, conn, EventJoinOrder, map[string]any{"order_id": 42})
	waitFor(t, "order subscription", func() bool { return hub.Subscribers(domain.OrderTopic("42")) == 1 })
}

func TestClient_JoinCanonicalisesIDs(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := newTestServer(t, hub, &stubIngestor{})
	conn := dial(t, ts, nil)

	send(t, conn, EventJoinDelivery, map[string]any{"delivery_id": " D1 "})
	// Raw frame so the number keeps its fractional form on the wire.
	frame := []byte(`{"event":"join_order","data":{"order_id":1.0}}`)
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	send(t, conn, EventJoinDelivery, map[string]any{"delivery_id": "   "})

	waitFor(t, "canonical subscriptions", func() bool {
		return hub.Subscribers(domain.DeliveryTopic("D1")) == 1 && hub.Subscribers(domain.OrderTopic("1")) == 1
	})
	if hub.Subscribers(domain.DeliveryTopic(" D1 ")) != 0 || hub.Subscribers(domain.DeliveryTopic("")) != 0 {
		t.Errorf("padded or blank ids must not create topics")
	}

	hub.Publish(domain.DeliveryTopic("D1"), domain.EventTrackingUpdate, domain.TrackingState{DeliveryID: "D1", Lat: 1, Lng: 2})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), `"delivery_id":"D1"`) {
		t.Errorf("unexpected frame %s", msg)
	}
}

func TestClient_IgnoresInvalidFrames(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ingest := &stubIngestor{}
	ts := newTestServer(t, hub, ingest)
	conn := dial(t, ts, nil)

	_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	send(t, conn, EventJoinDelivery, map[string]any{})
	send(t, conn, "unknown_event", map[string]any{"x": 1})
	send(t, conn, EventDriverLocation, "not an object")

	// A valid join after the noise proves the connection survived.
	send(t, conn, EventJoinDelivery, map[string]any{"delivery_id": "D9"})
	waitFor(t, "subscription after noise", func() bool { return hub.Subscribers(domain.DeliveryTopic("D9")) == 1 })

	if hub.Subscribers(domain.DeliveryTopic("")) != 0 {
		t.Errorf("empty delivery id must not create a topic")
	}
	if ingest.count() != 0 {
		t.Errorf("expected nothing enqueued, got %d", ingest.count())
	}
}

func TestClient_DriverLocationIsEnqueued(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ingest := &stubIngestor{}
	ts := newTestServer(t, hub, ingest)
	conn := dial(t, ts, nil)

	send(t, conn, EventDriverLocation, map[string]any{"delivery_id": "D1", "lat": 12.9, "lng": "77.5"})
	waitFor(t, "enqueue", func() bool { return ingest.count() == 1 })

	ingest.mu.Lock()
	in := ingest.got[0]
	ingest.mu.Unlock()
	if in.Raw.DeliveryKey() != "D1" || in.Transport != TransportWebsocket {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestClient_DisconnectLeavesAllTopics(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := newTestServer(t, hub, &stubIngestor{})
	conn := dial(t, ts, nil)

	send(t, conn, EventJoinDelivery, map[string]any{"delivery_id": "D1"})
	send(t, conn, EventJoinOrder, map[string]any{"order_id": "42"})
	waitFor(t, "subscriptions", func() bool {
		return hub.Subscribers(domain.DeliveryTopic("D1")) == 1 && hub.Subscribers(domain.OrderTopic("42")) == 1
	})

	_ = conn.Close()
	waitFor(t, "cleanup", func() bool {
		return hub.Subscribers(domain.DeliveryTopic("D1")) == 0 && hub.Subscribers(domain.OrderTopic("42")) == 0
	})
}

func TestServer_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := newTestServer(t, hub, &stubIngestor{})
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}

	dial(t, ts, http.Header{"Origin": []string{"http://localhost:5173"}})
}
