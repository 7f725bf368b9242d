package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stocklive/stocklive/internal/adapter/storage"
	"github.com/stocklive/stocklive/internal/core/domain"
	"github.com/stocklive/stocklive/internal/core/service"
	"github.com/stocklive/stocklive/internal/hub"
	"github.com/stocklive/stocklive/internal/port"
)

const defaultListLimit = 100

type HTTPHandler struct {
	inventory port.InventoryRepository
	suppliers port.SupplierRepository
	orders    port.OrderRepository
	cache     port.CacheRepository
	notifier  port.Notifier
	replenish *service.ReplenishmentService
	hub       *hub.Hub
	upgrader  websocket.Upgrader
	log       *logrus.Logger
}

func NewHTTPHandler(
	inventory port.InventoryRepository,
	suppliers port.SupplierRepository,
	orders port.OrderRepository,
	cache port.CacheRepository,
	notifier port.Notifier,
	replenish *service.ReplenishmentService,
	h *hub.Hub,
	log *logrus.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		suppliers: suppliers,
		orders:    orders,
		cache:     cache,
		notifier:  notifier,
		replenish: replenish,
		hub:       h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the fronting auth layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Routes wires every endpoint onto a fresh mux.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("PUT /api/items/{id}", h.UpdateItem)
	mux.HandleFunc("GET /api/items/{id}/quantity", h.GetQuantity)
	mux.HandleFunc("GET /api/items/low-stock", h.ListLowStock)
	mux.HandleFunc("GET /api/suppliers", h.ListSuppliers)
	mux.HandleFunc("GET /api/purchase-orders", h.ListPurchaseOrders)
	mux.HandleFunc("GET /api/audit-logs", h.ListAuditLogs)
	mux.HandleFunc("POST /api/automation/run", h.RunAutomation)
	mux.HandleFunc("POST /api/notify-supplier", h.NotifySupplier)
	return mux
}

type errorResponse struct {
	Message string `json:"message"`
}

type itemRequest struct {
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	ReorderPoint    int             `json:"reorderPoint"`
	ReorderQuantity int             `json:"reorderQuantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Location        string          `json:"location"`
}

func (r itemRequest) validate() string {
	switch {
	case r.Name == "":
		return "name is required"
	case r.Category == "":
		return "category is required"
	case r.Quantity < 0:
		return "quantity must not be negative"
	case r.ReorderPoint < 0:
		return "reorderPoint must not be negative"
	case r.ReorderQuantity < 0:
		return "reorderQuantity must not be negative"
	case r.UnitPrice.IsNegative():
		return "unitPrice must not be negative"
	}
	return ""
}

// ServeWS upgrades the connection and hands it to the broadcast hub. The
// subscriber role comes from the X-User-Role header set by the fronting
// auth layer; absent or unknown values fall back to the unprivileged role.
func (h *HTTPHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role := hub.ParseRole(r.Header.Get("X-User-Role"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.hub.Serve(conn, role)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListItems(r.Context())
	if err != nil {
		h.serverError(w, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.SKU == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "sku is required"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
		return
	}

	item := domain.Item{
		Name:            req.Name,
		SKU:             req.SKU,
		Description:     req.Description,
		Category:        req.Category,
		Quantity:        req.Quantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		UnitPrice:       req.UnitPrice,
		Location:        req.Location,
	}
	if err := h.inventory.CreateItem(r.Context(), &item); err != nil {
		h.serverError(w, "create item", err)
		return
	}

	if err := h.cache.SetQuantity(r.Context(), item.ID, item.Quantity); err != nil {
		h.log.WithError(err).WithField("item_id", item.ID).Warn("quantity cache seed failed")
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid item id"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
		return
	}

	item := domain.Item{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Quantity:        req.Quantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		UnitPrice:       req.UnitPrice,
		Location:        req.Location,
	}
	found, err := h.inventory.UpdateItem(r.Context(), &item)
	if err != nil {
		h.serverError(w, "update item", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "item not found"})
		return
	}

	if err := h.cache.SetQuantity(r.Context(), item.ID, item.Quantity); err != nil {
		h.log.WithError(err).WithField("item_id", item.ID).Warn("quantity cache update failed")
	}

	writeJSON(w, http.StatusOK, item)
}

// GetQuantity serves the cached quantity when available so dashboard polls
// stay off the primary store.
func (h *HTTPHandler) GetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid item id"})
		return
	}

	quantity, ok, err := h.cache.GetQuantity(r.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("item_id", id).Warn("quantity cache read failed")
		ok = false
	}
	if !ok {
		item, err := h.inventory.GetItem(r.Context(), id)
		if err != nil {
			h.serverError(w, "get item", err)
			return
		}
		if item == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "item not found"})
			return
		}
		quantity = item.Quantity
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "quantity": quantity})
}

func (h *HTTPHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListBelowReorderPoint(r.Context())
	if err != nil {
		h.serverError(w, "list low stock", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.ListSuppliers(r.Context())
	if err != nil {
		h.serverError(w, "list suppliers", err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (h *HTTPHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListPurchaseOrders(r.Context(), listLimit(r))
	if err != nil {
		h.serverError(w, "list purchase orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.inventory.ListAuditLogs(r.Context(), listLimit(r))
	if err != nil {
		h.serverError(w, "list audit logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// RunAutomation triggers one replenishment pass. Failures surface to the
// caller; nothing is partially committed on error.
func (h *HTTPHandler) RunAutomation(w http.ResponseWriter, r *http.Request) {
	if err := h.replenish.RunAutomationCheck(r.Context()); err != nil {
		h.serverError(w, "automation run", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *HTTPHandler) NotifySupplier(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListBelowReorderPoint(r.Context())
	if err != nil {
		h.serverError(w, "list low stock", err)
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no items below reorder point"})
		return
	}
	if err := h.notifier.NotifyLowStock(r.Context(), items); err != nil {
		h.serverError(w, "notify supplier", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "notification sent"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) serverError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNoLineItems) {
		// Never expected out of the automation path; treat as a defect.
		h.log.WithError(err).Error("partial order creation detected")
	}
	h.log.WithError(err).Error(op + " failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
}

func listLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
