package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/handler"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
	"github.com/freshcart/delivery-service/internal/core/service"
	"github.com/freshcart/delivery-service/internal/infrastructure/db/memory"
	"github.com/freshcart/delivery-service/internal/infrastructure/realtime"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProvider struct {
	quote domain.RouteQuote
	err   error
}

func (p *stubProvider) Route(context.Context, domain.LatLng, domain.LatLng) (domain.RouteQuote, error) {
	return p.quote, p.err
}

type stubDirectory struct {
	deliveries map[string]*domain.Delivery
}

func (d stubDirectory) FindDelivery(_ context.Context, id string) (*domain.Delivery, error) {
	if dl, ok := d.deliveries[id]; ok {
		return dl, nil
	}
	return nil, domain.ErrDeliveryNotFound
}

// syncIngestor applies streamed samples inline so tests need not wait on a
// dispatcher.
type syncIngestor struct {
	svc ports.TrackingService
}

func (s syncIngestor) Enqueue(in ports.IngestInput) bool {
	_, _ = s.svc.Ingest(context.Background(), in)
	return true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSecret = "test-secret"

type testEnv struct {
	e        *echo.Echo
	hub      *realtime.Hub
	store    *memory.TrackingStore
	provider *stubProvider
}

func newTestEnv(t *testing.T, jwtSecret string) *testEnv {
	t.Helper()
	return newTestEnvWithAuthz(t, jwtSecret, nil)
}

// newTestEnvWithAuthz turns on publisher authorization when authz is set.
func newTestEnvWithAuthz(t *testing.T, jwtSecret string, authz service.Authorizer) *testEnv {
	t.Helper()
	log := zerolog.Nop()

	store := memory.NewTrackingStore(0)
	hub := realtime.NewHub(log)
	tracking := service.NewTrackingService(store, hub, authz, log)
	provider := &stubProvider{}
	routes := service.NewRouteService(provider, nil, store, log)
	validate := handler.NewValidator()
	origins := []string{"http://localhost:5173"}

	e := NewRouter(Options{
		Tracking:       tracking,
		Routes:         routes,
		Stream:         realtime.NewServer(hub, syncIngestor{svc: tracking}, validate, origins, log),
		Validator:      validate,
		AllowedOrigins: origins,
		JWTSecret:      jwtSecret,
		PublisherAuth:  authz != nil,
		Log:            log,
	})
	return &testEnv{e: e, hub: hub, store: store, provider: provider}
}

func (env *testEnv) do(method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func (env *testEnv) waitForSubscribers(t *testing.T, topic domain.Topic, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers(topic) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers on %s", n, topic)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func bearer(t *testing.T, role string) http.Header {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return http.Header{"Authorization": []string{"Bearer " + signed}}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRouter_IngestThenQuery(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, "/tracking/location",
		`{"delivery_id":"D1","order_id":"42","lat":12.9716,"lng":"77.5946","heading":"north"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body["ok"])
	}
	tracking := body["tracking"].(map[string]any)
	if tracking["lng"] != 77.5946 || tracking["heading"] != nil {
		t.Errorf("unexpected coerced sample %v", tracking)
	}

	rec = env.do(http.MethodGet, "/tracking/delivery/D1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get delivery: expected 200, got %d", rec.Code)
	}
	body = decode(t, rec)
	if h, _ := body["history"].([]any); len(h) != 1 {
		t.Errorf("expected 1 history point, got %v", body["history"])
	}

	rec = env.do(http.MethodGet, "/tracking/order/42", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["tracking"].(map[string]any)["delivery_id"]; got != "D1" {
		t.Errorf("expected D1 for order 42, got %v", got)
	}
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t, "")

	for _, path := range []string{"/tracking/delivery/nope", "/tracking/order/999"} {
		rec := env.do(http.MethodGet, path, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
		if msg := decode(t, rec)["message"]; msg != "Tracking not found" {
			t.Errorf("%s: unexpected message %v", path, msg)
		}
	}
}

func TestRouter_IngestRejectsInvalidSamples(t *testing.T) {
	env := newTestEnv(t, "")

	bodies := []string{
		`{"lat":1,"lng":2}`,
		`{"delivery_id":"D1","lat":"abc","lng":2}`,
		`{"delivery_id":"  ","lat":1,"lng":2}`,
		`{"delivery_id":"D1","lng":2}`,
	}
	for _, b := range bodies {
		rec := env.do(http.MethodPost, "/tracking/location", b, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", b, rec.Code)
		}
		if msg := decode(t, rec)["message"]; msg != domain.ErrInvalidSample.Error() {
			t.Errorf("%s: unexpected message %v", b, msg)
		}
	}
	if env.store.Len() != 0 {
		t.Errorf("rejected samples must not reach the store")
	}
}

func TestRouter_MapRoute(t *testing.T) {
	env := newTestEnv(t, "")
	env.provider.quote = domain.RouteQuote{DistanceKm: 3.4, EtaMinutes: 9, Polyline: [][2]float64{{1, 2}, {3, 4}}}

	rec := env.do(http.MethodGet, "/map/route?from_lat=1&from_lng=2&to_lat=3&to_lng=4", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["eta_minutes"]; got != float64(9) {
		t.Errorf("unexpected eta %v", got)
	}

	rec = env.do(http.MethodGet, "/map/route?from_lat=1&from_lng=2", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing coordinates, got %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != domain.ErrInvalidCoordinates.Error() {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestRouter_MapRouteProviderFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.provider.err = errors.New("OSRM request failed with status 500")

	rec := env.do(http.MethodGet, "/map/route?from_lat=1&from_lng=2&to_lat=3&to_lng=4", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	msg, _ := decode(t, rec)["message"].(string)
	if !strings.Contains(msg, "OSRM request failed with status 500") {
		t.Errorf("expected provider detail in message, got %q", msg)
	}
}

func TestRouter_OriginPolicy(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/health", "", http.Header{"Origin": []string{"http://evil.example"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign origin, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/health", "", http.Header{"Origin": []string{"http://localhost:5173"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for allowed origin, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:5173" {
		t.Errorf("unexpected CORS header %q", got)
	}
	if decode(t, rec)["ok"] != true {
		t.Errorf("expected ok=true")
	}
}

func TestRouter_ForgetRequiresOperator(t *testing.T) {
	env := newTestEnv(t, testSecret)
	env.do(http.MethodPost, "/tracking/location", `{"delivery_id":"D1","lat":1,"lng":2}`, nil)

	if rec := env.do(http.MethodDelete, "/tracking/delivery/D1", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/tracking/delivery/D1", "", bearer(t, domain.RoleCustomer)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/tracking/delivery/D1", "", bearer(t, domain.RoleOperator)); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for operator, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/tracking/delivery/D1", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after forget, got %d", rec.Code)
	}
}

func TestRouter_ForgetAbsentWithoutSecret(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodDelete, "/tracking/delivery/D1", "", nil)
	if rec.Code != http.StatusMethodNotAllowed && rec.Code != http.StatusNotFound {
		t.Fatalf("expected DELETE to be unrouted, got %d", rec.Code)
	}
}

func TestRouter_HTTPIngestBroadcastsToWebsocketObservers(t *testing.T) {
	env := newTestEnv(t, "")
	ts := httptest.NewServer(env.e)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"event": "join_order", "data": map[string]any{"order_id": 42}}); err != nil {
		t.Fatalf("join: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers(domain.OrderTopic("42")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/tracking/location", echo.MIMEApplicationJSON,
		strings.NewReader(`{"delivery_id":"D1","order_id":42,"lat":1,"lng":2}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Event != domain.EventTrackingUpdate || frame.Data["delivery_id"] != "D1" || frame.Data["order_id"] != "42" {
		t.Errorf("unexpected frame %+v", frame)
	}
}

func TestRouter_PaddedIDsReachTheSameObservers(t *testing.T) {
	env := newTestEnv(t, "")
	ts := httptest.NewServer(env.e)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"event": "join_delivery", "data": map[string]any{"delivery_id": " D1 "}}); err != nil {
		t.Fatalf("join: %v", err)
	}
	env.waitForSubscribers(t, domain.DeliveryTopic("D1"), 1)

	resp, err := http.Post(ts.URL+"/tracking/location", echo.MIMEApplicationJSON,
		strings.NewReader(`{"delivery_id":" D1 ","lat":1,"lng":2}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Data["delivery_id"] != "D1" {
		t.Errorf("unexpected frame %+v", frame)
	}

	if rec := env.do(http.MethodGet, "/tracking/delivery/%20D1%20", "", nil); rec.Code != http.StatusOK {
		t.Errorf("padded path id: expected 200, got %d", rec.Code)
	}
}

func TestRouter_PublisherAuthLetsAnonymousObserversWatch(t *testing.T) {
	dir := stubDirectory{deliveries: map[string]*domain.Delivery{"D1": {ID: "D1", PartnerID: "u1"}}}
	env := newTestEnvWithAuthz(t, testSecret, service.NewPublisherPolicy(dir))
	ts := httptest.NewServer(env.e)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("anonymous dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"event": "join_delivery", "data": map[string]any{"delivery_id": "D1"}}); err != nil {
		t.Fatalf("join: %v", err)
	}
	env.waitForSubscribers(t, domain.DeliveryTopic("D1"), 1)

	// Frames are handled in order, so once the second join lands the
	// anonymous driver_location has already been refused.
	if err := conn.WriteJSON(map[string]any{"event": "driver_location", "data": map[string]any{"delivery_id": "D1", "lat": 1, "lng": 2}}); err != nil {
		t.Fatalf("driver_location: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"event": "join_order", "data": map[string]any{"order_id": "7"}}); err != nil {
		t.Fatalf("join order: %v", err)
	}
	env.waitForSubscribers(t, domain.OrderTopic("7"), 1)
	if env.store.Len() != 0 {
		t.Errorf("anonymous driver_location must not be stored, got %d deliveries", env.store.Len())
	}

	body := `{"delivery_id":"D1","lat":1,"lng":2}`
	if rec := env.do(http.MethodPost, "/tracking/location", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous POST: expected 401, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/tracking/location", body, bearer(t, domain.RoleAdmin)); rec.Code != http.StatusOK {
		t.Fatalf("admin POST: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string `json:"event"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Event != domain.EventTrackingUpdate {
		t.Errorf("expected %s, got %s", domain.EventTrackingUpdate, frame.Event)
	}
}

func TestRouter_PublisherAuthRejectsInvalidStreamToken(t *testing.T) {
	env := newTestEnvWithAuthz(t, testSecret, service.NewPublisherPolicy(stubDirectory{}))
	ts := httptest.NewServer(env.e)
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts)+"?access_token=not-a-token", nil)
	if err == nil {
		t.Fatal("expected the upgrade to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
