package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bookstore/recordstore/internal/events"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/bookstore/recordstore/internal/merchant/merchanttest"
	"github.com/bookstore/recordstore/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPublisher records published events by type.
type MockPublisher struct {
	mu     sync.Mutex
	events []string
	sales  []merchant.Sale
	err    error
}

func (m *MockPublisher) record(eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	return m.err
}

func (m *MockPublisher) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *MockPublisher) PublishRecordAdded(context.Context, string, string, string, int, int) error {
	return m.record(events.EventTypeRecordAdded)
}

func (m *MockPublisher) PublishRecordPriced(context.Context, string, int64) error {
	return m.record(events.EventTypeRecordPriced)
}

func (m *MockPublisher) PublishRecordSold(_ context.Context, id string, quantity int, value int64) error {
	m.mu.Lock()
	m.sales = append(m.sales, merchant.Sale{ItemID: id, Quantity: quantity, Value: value})
	m.mu.Unlock()
	return m.record(events.EventTypeRecordSold)
}

func (m *MockPublisher) Sales() []merchant.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]merchant.Sale(nil), m.sales...)
}

func (m *MockPublisher) PublishReservationCreated(context.Context, int, string, int) error {
	return m.record(events.EventTypeReservationCreated)
}

func (m *MockPublisher) PublishReservationCancelled(context.Context, int, string, int) error {
	return m.record(events.EventTypeReservationCancelled)
}

func (m *MockPublisher) PublishReservationCommitted(context.Context, int, string, int) error {
	return m.record(events.EventTypeReservationCommitted)
}

// memStore keeps one snapshot in memory.
type memStore struct {
	snap    *merchant.Snapshot
	pingErr error
}

func (s *memStore) WriteSnapshot(_ context.Context, snap *merchant.Snapshot) error {
	s.snap = snap
	return nil
}

func (s *memStore) ReadSnapshot(context.Context) (*merchant.Snapshot, error) {
	if s.snap == nil {
		return nil, snapshot.ErrNotFound
	}
	return s.snap, nil
}

func (s *memStore) Ping() error { return s.pingErr }

type testEnv struct {
	m     *merchant.Merchant
	store *memStore
	pub   *MockPublisher
	srv   *Server
	ts    *httptest.Server
}

func newTestEnv(t *testing.T, m *merchant.Merchant) *testEnv {
	t.Helper()
	env := &testEnv{m: m, store: &memStore{}, pub: &MockPublisher{}}
	env.srv = NewServer(m, env.store, env.pub, zap.NewNop())
	env.ts = httptest.NewServer(env.srv.Routes(map[string]http.Handler{
		"/extra": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
	}))
	t.Cleanup(env.ts.Close)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, env.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusTeapot {
		var raw any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		out, _ = raw.(map[string]any)
		if out == nil {
			out = map[string]any{"list": raw}
		}
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, merchant.New())

	status, body := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	env.store.pingErr = errors.New("database gone")
	status, body = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestExtraHandlersAreMounted(t *testing.T) {
	env := newTestEnv(t, merchant.New())
	status, _ := env.do(t, http.MethodGet, "/extra", nil)
	assert.Equal(t, http.StatusTeapot, status)
}

func TestItemLifecycle(t *testing.T) {
	env := newTestEnv(t, merchant.New(merchant.WithPricingPolicy(merchant.PriceAnyTime)))

	status, body := env.do(t, http.MethodPost, "/items", map[string]any{
		"id": "PINK0001", "artist": "Nick Drake", "title": "Pink Moon", "notes": "reissue", "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "PINK0001", body["id"])
	assert.EqualValues(t, 5, body["quantity_on_hand"])
	assert.Nil(t, body["unit_price"])

	status, body = env.do(t, http.MethodPut, "/items/PINK0001/price", map[string]any{"unit_price": 1500})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1500, body["unit_price"])

	status, body = env.do(t, http.MethodPost, "/items/PINK0001/sell", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 3, body["quantity_on_hand"])
	assert.EqualValues(t, 3000, body["value_sold"])

	status, body = env.do(t, http.MethodGet, "/items/PINK0001", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["available"])

	status, body = env.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["list"], 1)

	env.srv.Wait()
	assert.ElementsMatch(t, []string{
		events.EventTypeRecordAdded,
		events.EventTypeRecordPriced,
		events.EventTypeRecordSold,
	}, env.pub.Published())
	assert.Equal(t, []merchant.Sale{{ItemID: "PINK0001", Quantity: 2, Value: 3000}}, env.pub.Sales())
}

func TestSoldEventCarriesBookedValue(t *testing.T) {
	m := merchant.New(merchant.WithPricingPolicy(merchant.PriceAnyTime))
	merchanttest.Stock(t, m, "PINK0001", 10, 500)
	env := newTestEnv(t, m)

	status, body := env.do(t, http.MethodPost, "/items/PINK0001/sell", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, status, body)

	// A later reprice must not change what the sale event reports.
	require.NoError(t, m.SetPrice("PINK0001", 9999))

	env.srv.Wait()
	assert.Equal(t, []merchant.Sale{{ItemID: "PINK0001", Quantity: 3, Value: 1500}}, env.pub.Sales())
}

func TestItemErrors(t *testing.T) {
	m := merchant.New()
	merchanttest.Stock(t, m, "AAAA0001", 2, 100)
	require.NoError(t, m.AddItem(3, "Unpriced", "Record", "", "CCCC0001"))
	require.NoError(t, m.AddItem(0, "Empty", "Shelf", "", "ZERO0001"))
	env := newTestEnv(t, m)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown item", http.MethodGet, "/items/ZZZZ0001", nil, http.StatusNotFound, "unknown_item"},
		{"malformed id", http.MethodGet, "/items/short", nil, http.StatusBadRequest, "invalid_identifier"},
		{"mismatch", http.MethodPost, "/items", map[string]any{"id": "AAAA0001", "artist": "x", "title": "y", "quantity": 1}, http.StatusConflict, "item_mismatch"},
		{"negative add", http.MethodPost, "/items", map[string]any{"id": "NEWW0001", "quantity": -1}, http.StatusBadRequest, "invalid_quantity"},
		{"missing quantity", http.MethodPost, "/items", map[string]any{"id": "NEWW0001"}, http.StatusBadRequest, "validation_failed"},
		{"unknown field", http.MethodPost, "/items", `{"id":"NEWW0001","quantity":1,"colour":"red"}`, http.StatusBadRequest, "invalid_body"},
		{"price while in stock", http.MethodPut, "/items/CCCC0001/price", map[string]any{"unit_price": -5}, http.StatusConflict, "record_not_in_stock"},
		{"negative price", http.MethodPut, "/items/ZERO0001/price", map[string]any{"unit_price": -5}, http.StatusBadRequest, "negative_price"},
		{"sell with none available", http.MethodPost, "/items/ZERO0001/sell", map[string]any{"quantity": 1}, http.StatusConflict, "record_not_in_stock"},
		{"oversell", http.MethodPost, "/items/AAAA0001/sell", map[string]any{"quantity": 3}, http.StatusConflict, "insufficient_stock"},
		{"unpriced sale", http.MethodPost, "/items/CCCC0001/sell", map[string]any{"quantity": 1}, http.StatusConflict, "price_not_set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}

	env.srv.Wait()
	assert.Empty(t, env.pub.Published())
}

func TestValidationReportsJSONFieldNames(t *testing.T) {
	env := newTestEnv(t, merchant.New())

	status, body := env.do(t, http.MethodPost, "/reservations", map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	fields := body["error"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "required", fields["item_id"])
	assert.Equal(t, "required", fields["quantity"])
}

func TestReservationLifecycle(t *testing.T) {
	m := merchant.New()
	merchanttest.Stock(t, m, "AAAA0001", 10, 250)
	env := newTestEnv(t, m)

	status, body := env.do(t, http.MethodPost, "/reservations", map[string]any{"item_id": "AAAA0001", "quantity": 4})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 1, body["reservation_id"])

	status, body = env.do(t, http.MethodPost, "/reservations", map[string]any{"item_id": "AAAA0001", "quantity": 2})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 2, body["reservation_id"])

	status, body = env.do(t, http.MethodGet, "/reservations/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AAAA0001", body["item_id"])
	assert.EqualValues(t, 4, body["quantity"])

	status, _ = env.do(t, http.MethodDelete, "/reservations/1", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPost, "/reservations/2/commit", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["quantity"])

	status, body = env.do(t, http.MethodGet, "/reservations", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["list"])

	it, err := m.Item("AAAA0001")
	require.NoError(t, err)
	assert.Equal(t, 8, it.OnHand)
	assert.Equal(t, 0, it.Reserved)
	assert.Equal(t, 0, m.UnitsSold())

	env.srv.Wait()
	assert.ElementsMatch(t, []string{
		events.EventTypeReservationCreated,
		events.EventTypeReservationCreated,
		events.EventTypeReservationCancelled,
		events.EventTypeReservationCommitted,
	}, env.pub.Published())
}

func TestReservationErrors(t *testing.T) {
	m := merchant.New()
	merchanttest.Stock(t, m, "AAAA0001", 2, 100)
	env := newTestEnv(t, m)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown reservation", http.MethodGet, "/reservations/9", nil, http.StatusNotFound, "unknown_reservation"},
		{"non-numeric id", http.MethodDelete, "/reservations/abc", nil, http.StatusNotFound, "unknown_reservation"},
		{"commit unknown", http.MethodPost, "/reservations/0/commit", nil, http.StatusNotFound, "unknown_reservation"},
		{"zero quantity", http.MethodPost, "/reservations", map[string]any{"item_id": "AAAA0001", "quantity": 0}, http.StatusBadRequest, "invalid_quantity"},
		{"too many", http.MethodPost, "/reservations", map[string]any{"item_id": "AAAA0001", "quantity": 3}, http.StatusConflict, "insufficient_stock"},
		{"unknown item", http.MethodPost, "/reservations", map[string]any{"item_id": "ZZZZ0001", "quantity": 1}, http.StatusNotFound, "unknown_item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestStatsAndAdmin(t *testing.T) {
	m := merchanttest.Populated(t)
	env := newTestEnv(t, m)

	status, body := env.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["distinct_items"])
	assert.EqualValues(t, 200, body["value_sold"])
	assert.EqualValues(t, 400, body["reserved_value"])

	status, body = env.do(t, http.MethodPost, "/admin/load", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "snapshot_not_found", errorCode(body))

	status, _ = env.do(t, http.MethodPost, "/admin/save", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.store.snap)

	status, body = env.do(t, http.MethodPost, "/admin/reset-sales", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["units_sold"])
	assert.EqualValues(t, 3, body["distinct_items"])

	status, body = env.do(t, http.MethodPost, "/admin/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["distinct_items"])

	status, body = env.do(t, http.MethodPost, "/admin/load", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["distinct_items"])
	assert.EqualValues(t, 2, body["units_sold"])
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t, merchant.New())
	env.pub.err = errors.New("broker down")

	status, _ := env.do(t, http.MethodPost, "/items", map[string]any{"id": "PINK0001", "artist": "a", "title": "t", "quantity": 1})
	assert.Equal(t, http.StatusCreated, status)
	env.srv.Wait()
	assert.Len(t, env.pub.Published(), 1)
}

func TestNilPublisher(t *testing.T) {
	srv := NewServer(merchant.New(), &memStore{}, nil, zap.NewNop())
	ts := httptest.NewServer(srv.Routes(nil))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/items", "application/json",
		bytes.NewBufferString(`{"id":"PINK0001","artist":"a","title":"t","quantity":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	srv.Wait()
}
