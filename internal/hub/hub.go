package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/stocklive/stocklive/internal/core/domain"
	"github.com/stocklive/stocklive/internal/port"
)

const storeTimeout = 5 * time.Second

// Hub mediates all live quantity changes: it validates inbound update
// requests, persists them through the inventory store and fans the resulting
// notifications out to every registered subscriber.
type Hub struct {
	inventory port.InventoryRepository
	cache     port.CacheRepository
	log       *logrus.Logger

	// debounce is the per-item coalescing window for broadcast emission.
	// Zero disables coalescing. Every accepted update is persisted either
	// way; only the fan-out is throttled.
	debounce time.Duration

	mu          sync.Mutex
	sessions    map[string]*Session
	lastSent    map[int64]time.Time
	pending     map[int64]domain.InventoryUpdate
	flushTimers map[int64]*time.Timer
	closed      bool
}

func New(inventory port.InventoryRepository, cache port.CacheRepository, debounce time.Duration, log *logrus.Logger) *Hub {
	return &Hub{
		inventory:   inventory,
		cache:       cache,
		log:         log,
		debounce:    debounce,
		sessions:    make(map[string]*Session),
		lastSent:    make(map[int64]time.Time),
		pending:     make(map[int64]domain.InventoryUpdate),
		flushTimers: make(map[int64]*time.Timer),
	}
}

// Serve registers the connection and blocks until it closes. Role metadata
// comes from the caller; the hub never trusts the wire for it.
func (h *Hub) Serve(conn *websocket.Conn, role Role) {
	s := &Session{
		id:   uuid.NewString(),
		role: role,
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	if !h.register(s) {
		conn.Close()
		return
	}

	go s.writePump()
	s.readPump()
}

// register adds the session and acknowledges the connection. Registering a
// session whose key is already present replaces the prior entry.
func (h *Hub) register(s *Session) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	if prev, ok := h.sessions[s.id]; ok && prev != s {
		prev.close()
	}
	h.sessions[s.id] = s
	h.mu.Unlock()

	ack, err := encodeMessage(MessageTypeConnectionAck, ackPayload{Message: "connected to inventory updates"})
	if err != nil {
		h.log.WithError(err).Error("encode connection ack")
		return true
	}
	s.trySend(ack)
	return true
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if cur, ok := h.sessions[s.id]; ok && cur == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()
	s.close()
}

// SessionCount reports the number of live subscriber connections.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) handleMessage(s *Session, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.WithError(err).Debug("malformed inbound message")
		h.sendError(s, "invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeInventoryUpdate:
		h.submitUpdate(s, msg)
	default:
		h.sendError(s, "unsupported message type: "+msg.Type)
	}
}

// submitUpdate validates and applies one quantity mutation, then publishes
// the change. Per-message failures go back to the submitting subscriber
// only and never interrupt other connections.
func (h *Hub) submitUpdate(s *Session, msg Message) {
	var req updateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		h.sendError(s, "invalid update format")
		return
	}

	itemID, err := req.ItemID.Int64()
	if err != nil || itemID <= 0 {
		h.sendError(s, "invalid update format")
		return
	}
	quantity64, err := req.Quantity.Int64()
	if err != nil || quantity64 < 0 {
		h.sendError(s, "invalid update format")
		return
	}
	quantity := int(quantity64)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	old, item, err := h.inventory.UpdateQuantity(ctx, itemID, quantity)
	if err != nil {
		h.log.WithError(err).WithField("item_id", itemID).Error("inventory update failed")
		h.sendError(s, "inventory store unavailable")
		return
	}
	if item == nil {
		h.sendError(s, "item not found")
		return
	}

	if err := h.cache.SetQuantity(ctx, itemID, quantity); err != nil {
		h.log.WithError(err).WithField("item_id", itemID).Warn("quantity cache update failed")
	}

	update := domain.InventoryUpdate{
		ItemID:           item.ID,
		Name:             item.Name,
		Quantity:         item.Quantity,
		PreviousQuantity: old,
		Timestamp:        time.Now().UTC(),
	}
	h.publishUpdate(s, update)

	if item.BelowReorderPoint() {
		h.raiseStockAlert(ctx, item)
	}
}

// publishUpdate fans an accepted update out to every other subscriber,
// coalescing per item within the debounce window. Coalescing is trailing
// edge: the latest held update is flushed once the window elapses, so
// distinct updates are delayed, not lost.
func (h *Hub) publishUpdate(origin *Session, update domain.InventoryUpdate) {
	if h.debounce > 0 {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return
		}
		now := time.Now()
		if last, ok := h.lastSent[update.ItemID]; ok && now.Sub(last) < h.debounce {
			h.pending[update.ItemID] = update
			if _, armed := h.flushTimers[update.ItemID]; !armed {
				itemID := update.ItemID
				h.flushTimers[itemID] = time.AfterFunc(h.debounce-now.Sub(last), func() {
					h.flushPending(itemID)
				})
			}
			h.mu.Unlock()
			return
		}
		h.lastSent[update.ItemID] = now
		h.mu.Unlock()
	}

	data, err := encodeMessage(MessageTypeInventoryUpdate, update)
	if err != nil {
		h.log.WithError(err).Error("encode inventory update")
		return
	}
	h.broadcast(origin, data)
}

// flushPending emits the last coalesced update for an item. The originator
// exclusion does not survive coalescing: a flushed update goes to everyone.
func (h *Hub) flushPending(itemID int64) {
	h.mu.Lock()
	delete(h.flushTimers, itemID)
	update, ok := h.pending[itemID]
	if !ok || h.closed {
		h.mu.Unlock()
		return
	}
	delete(h.pending, itemID)
	h.lastSent[itemID] = time.Now()
	h.mu.Unlock()

	data, err := encodeMessage(MessageTypeInventoryUpdate, update)
	if err != nil {
		h.log.WithError(err).Error("encode inventory update")
		return
	}
	h.broadcast(nil, data)
}

// raiseStockAlert notifies elevated-role subscribers that an item crossed
// its reorder point. The alert cache keeps one understocked item from
// alerting on every subsequent update.
func (h *Hub) raiseStockAlert(ctx context.Context, item *domain.Item) {
	ok, err := h.cache.ThrottleAlert(ctx, item.ID)
	if err != nil {
		h.log.WithError(err).WithField("item_id", item.ID).Warn("alert throttle check failed")
		return
	}
	if !ok {
		return
	}

	data, err := encodeMessage(MessageTypeStockAlert, alertPayload{
		ItemID:       item.ID,
		Name:         item.Name,
		SKU:          item.SKU,
		Quantity:     item.Quantity,
		ReorderPoint: item.ReorderPoint,
	})
	if err != nil {
		h.log.WithError(err).Error("encode stock alert")
		return
	}

	h.mu.Lock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.role.Elevated() {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.trySend(data)
	}
}

// broadcast delivers to every registered session except the originator. A
// session whose buffer is full is dropped; it must reconnect to resume.
func (h *Hub) broadcast(except *Session, data []byte) {
	h.mu.Lock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s != except {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		if !s.trySend(data) {
			h.log.WithField("session_id", s.id).Warn("dropping slow subscriber")
			h.unregister(s)
		}
	}
}

// sendError reports a per-message failure to the originating subscriber
// only. Errors are never broadcast.
func (h *Hub) sendError(s *Session, message string) {
	data, err := encodeMessage(MessageTypeError, errorPayload{Message: message})
	if err != nil {
		h.log.WithError(err).Error("encode error message")
		return
	}
	s.trySend(data)
}

// Close terminates every subscriber connection, clears the registry and
// cancels pending flush timers. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	for _, t := range h.flushTimers {
		t.Stop()
	}
	h.flushTimers = make(map[int64]*time.Timer)
	h.pending = make(map[int64]domain.InventoryUpdate)

	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
