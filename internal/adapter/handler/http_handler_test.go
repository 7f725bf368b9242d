package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stocklive/stocklive/internal/core/domain"
	"github.com/stocklive/stocklive/internal/core/service"
	"github.com/stocklive/stocklive/internal/hub"
)

// Port mocks

type mockInventory struct {
	items    map[int64]domain.Item
	nextID   int64
	listErr  error
	logLimit int
}

func newMockInventory(items ...domain.Item) *mockInventory {
	m := &mockInventory{items: make(map[int64]domain.Item), nextID: 1}
	for _, item := range items {
		m.items[item.ID] = item
		if item.ID >= m.nextID {
			m.nextID = item.ID + 1
		}
	}
	return m
}

func (m *mockInventory) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *mockInventory) ListItems(ctx context.Context) ([]domain.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *mockInventory) CreateItem(ctx context.Context, item *domain.Item) error {
	item.ID = m.nextID
	m.nextID++
	m.items[item.ID] = *item
	return nil
}

func (m *mockInventory) UpdateItem(ctx context.Context, item *domain.Item) (bool, error) {
	if _, ok := m.items[item.ID]; !ok {
		return false, nil
	}
	m.items[item.ID] = *item
	return true, nil
}

func (m *mockInventory) UpdateQuantity(ctx context.Context, id int64, quantity int) (int, *domain.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return 0, nil, nil
	}
	old := item.Quantity
	item.Quantity = quantity
	m.items[id] = item
	return old, &item, nil
}

func (m *mockInventory) ListBelowReorderPoint(ctx context.Context) ([]domain.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Item
	for _, item := range m.items {
		if item.BelowReorderPoint() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockInventory) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	m.logLimit = limit
	return []domain.AuditLog{}, nil
}

type mockSuppliers struct {
	suppliers []domain.Supplier
}

func (m *mockSuppliers) FindBestSupplier(ctx context.Context, category string) (*domain.Supplier, error) {
	for i := range m.suppliers {
		if m.suppliers[i].Category == category {
			return &m.suppliers[i], nil
		}
	}
	return nil, nil
}

func (m *mockSuppliers) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return m.suppliers, nil
}

type mockOrders struct {
	orders    []domain.PurchaseOrder
	listLimit int
	createErr error
}

func (m *mockOrders) CreatePurchaseOrder(ctx context.Context, order *domain.PurchaseOrder, lines []domain.PurchaseOrderLine) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = int64(len(m.orders) + 1)
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockOrders) ListPurchaseOrders(ctx context.Context, limit int) ([]domain.PurchaseOrder, error) {
	m.listLimit = limit
	return m.orders, nil
}

type mockQuantityCache struct {
	quantities map[int64]int
	getErr     error
}

func newMockQuantityCache() *mockQuantityCache {
	return &mockQuantityCache{quantities: make(map[int64]int)}
}

func (c *mockQuantityCache) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	c.quantities[itemID] = quantity
	return nil
}

func (c *mockQuantityCache) GetQuantity(ctx context.Context, itemID int64) (int, bool, error) {
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	q, ok := c.quantities[itemID]
	return q, ok, nil
}

func (c *mockQuantityCache) ThrottleAlert(ctx context.Context, itemID int64) (bool, error) {
	return true, nil
}

type mockNotifier struct {
	notified [][]domain.Item
	err      error
}

func (n *mockNotifier) NotifyLowStock(ctx context.Context, items []domain.Item) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, items)
	return nil
}

// Fixture

type fixture struct {
	inventory *mockInventory
	suppliers *mockSuppliers
	orders    *mockOrders
	cache     *mockQuantityCache
	notifier  *mockNotifier
	mux       *http.ServeMux
}

func newFixture(t *testing.T, items ...domain.Item) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{
		inventory: newMockInventory(items...),
		suppliers: &mockSuppliers{},
		orders:    &mockOrders{},
		cache:     newMockQuantityCache(),
		notifier:  &mockNotifier{},
	}

	replenish := service.NewReplenishmentService(f.inventory, f.suppliers, f.orders, log)
	broadcastHub := hub.New(f.inventory, f.cache, 0, log)
	t.Cleanup(broadcastHub.Close)

	h := NewHTTPHandler(f.inventory, f.suppliers, f.orders, f.cache, f.notifier, replenish, broadcastHub, log)
	f.mux = h.Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func widget(id int64, quantity, reorderPoint int) domain.Item {
	return domain.Item{
		ID: id, Name: "Widget", SKU: "WID-0001", Category: "Components",
		Quantity: quantity, ReorderPoint: reorderPoint, ReorderQuantity: 50,
		UnitPrice: decimal.RequireFromString("3.25"),
	}
}

// Tests

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListItems(t *testing.T) {
	f := newFixture(t, widget(1, 10, 5))
	rec := f.do(t, http.MethodGet, "/api/items", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeBody[[]domain.Item](t, rec)
	if len(items) != 1 || items[0].SKU != "WID-0001" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestListItemsStoreError(t *testing.T) {
	f := newFixture(t)
	f.inventory.listErr = errors.New("connection refused")
	rec := f.do(t, http.MethodGet, "/api/items", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/items", map[string]any{
		"name": "Bolt", "sku": "BLT-0001", "category": "Fasteners",
		"quantity": 200, "reorderPoint": 50, "reorderQuantity": 500,
		"unitPrice": "0.12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	item := decodeBody[domain.Item](t, rec)
	if item.ID == 0 {
		t.Error("expected assigned id")
	}
	if got, ok := f.cache.quantities[item.ID]; !ok || got != 200 {
		t.Errorf("expected quantity cache seeded with 200, got %d (cached=%v)", got, ok)
	}
}

func TestCreateItemValidation(t *testing.T) {
	cases := []struct {
		name string
		body any
	}{
		{"invalid json", []byte("{not json")},
		{"missing sku", map[string]any{"name": "Bolt", "category": "Fasteners"}},
		{"missing name", map[string]any{"sku": "BLT-0001", "category": "Fasteners"}},
		{"missing category", map[string]any{"name": "Bolt", "sku": "BLT-0001"}},
		{"negative quantity", map[string]any{"name": "Bolt", "sku": "BLT-0001", "category": "Fasteners", "quantity": -1}},
		{"negative reorder point", map[string]any{"name": "Bolt", "sku": "BLT-0001", "category": "Fasteners", "reorderPoint": -1}},
		{"negative price", map[string]any{"name": "Bolt", "sku": "BLT-0001", "category": "Fasteners", "unitPrice": "-1.00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/items", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if len(f.inventory.items) != 0 {
				t.Error("invalid request must not create an item")
			}
		})
	}
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t, widget(1, 10, 5))
	rec := f.do(t, http.MethodPut, "/api/items/1", map[string]any{
		"name": "Widget", "category": "Components", "quantity": 25,
		"reorderPoint": 5, "reorderQuantity": 50, "unitPrice": "3.25",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := f.inventory.items[1].Quantity; got != 25 {
		t.Errorf("expected stored quantity 25, got %d", got)
	}
	if got := f.cache.quantities[1]; got != 25 {
		t.Errorf("expected cached quantity 25, got %d", got)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/items/99", map[string]any{
		"name": "Widget", "category": "Components",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateItemInvalidID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/items/abc", map[string]any{
		"name": "Widget", "category": "Components",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetQuantityFromCache(t *testing.T) {
	f := newFixture(t, widget(1, 10, 5))
	f.cache.quantities[1] = 99

	rec := f.do(t, http.MethodGet, "/api/items/1/quantity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]int](t, rec)
	if body["quantity"] != 99 {
		t.Errorf("expected cached quantity 99, got %d", body["quantity"])
	}
}

func TestGetQuantityFallsBackToStore(t *testing.T) {
	f := newFixture(t, widget(1, 10, 5))
	f.cache.getErr = errors.New("cache down")

	rec := f.do(t, http.MethodGet, "/api/items/1/quantity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]int](t, rec)
	if body["quantity"] != 10 {
		t.Errorf("expected stored quantity 10, got %d", body["quantity"])
	}
}

func TestGetQuantityNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/items/42/quantity", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListLowStock(t *testing.T) {
	f := newFixture(t, widget(1, 3, 5), widget(2, 100, 5))
	rec := f.do(t, http.MethodGet, "/api/items/low-stock", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeBody[[]domain.Item](t, rec)
	if len(items) != 1 || items[0].ID != 1 {
		t.Errorf("unexpected low stock items: %+v", items)
	}
}

func TestListPurchaseOrdersLimit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/purchase-orders?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.orders.listLimit != 5 {
		t.Errorf("expected limit 5, got %d", f.orders.listLimit)
	}

	rec = f.do(t, http.MethodGet, "/api/purchase-orders?limit=bogus", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.orders.listLimit != defaultListLimit {
		t.Errorf("expected default limit %d, got %d", defaultListLimit, f.orders.listLimit)
	}
}

func TestRunAutomation(t *testing.T) {
	f := newFixture(t, widget(1, 3, 5))
	f.suppliers.suppliers = []domain.Supplier{{
		ID: 7, Name: "Acme", Category: "Components",
		ReliabilityScore: decimal.RequireFromString("4.80"),
	}}

	rec := f.do(t, http.MethodPost, "/api/automation/run", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("expected 1 purchase order, got %d", len(f.orders.orders))
	}
	if f.orders.orders[0].SupplierID != 7 || !f.orders.orders[0].IsAutomated {
		t.Errorf("unexpected order: %+v", f.orders.orders[0])
	}
}

func TestRunAutomationStoreError(t *testing.T) {
	f := newFixture(t, widget(1, 3, 5))
	f.suppliers.suppliers = []domain.Supplier{{
		ID: 7, Name: "Acme", Category: "Components",
		ReliabilityScore: decimal.RequireFromString("4.80"),
	}}
	f.orders.createErr = errors.New("deadlock")

	rec := f.do(t, http.MethodPost, "/api/automation/run", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestNotifySupplier(t *testing.T) {
	f := newFixture(t, widget(1, 3, 5))
	rec := f.do(t, http.MethodPost, "/api/notify-supplier", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.notifier.notified) != 1 || len(f.notifier.notified[0]) != 1 {
		t.Fatalf("expected one notification with one item, got %+v", f.notifier.notified)
	}
}

func TestNotifySupplierNoLowStock(t *testing.T) {
	f := newFixture(t, widget(1, 100, 5))
	rec := f.do(t, http.MethodPost, "/api/notify-supplier", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.notifier.notified) != 0 {
		t.Error("expected no notification when nothing is below reorder point")
	}
}
