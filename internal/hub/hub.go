package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamgate/internal/model"
)

// Sink is the opaque send capability of one downstream subscriber.
// Implementations must respect context cancellation; delivery is abandoned
// when the per-subscriber send timeout expires.
type Sink interface {
	Deliver(ctx context.Context, ev model.Event) error
}

// Config configures the hub.
type Config struct {
	// SendTimeout bounds each per-subscriber delivery. This is deliberately
	// short and distinct from the upstream socket timeouts.
	SendTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendTimeout: 2 * time.Second,
	}
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Subscribers int
	Delivered   int64
	Failed      int64
	Removed     int64
}

// Hub holds the subscriber set and fans canonical events out to it.
type Hub struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]Sink

	delivered int64
	failed    int64
	removed   int64
}

// New creates a hub.
func New(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultConfig().SendTimeout
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[uuid.UUID]Sink),
	}
}

// Register adds a subscriber and returns its subscription ID.
func (h *Hub) Register(sink Sink) uuid.UUID {
	id := uuid.New()

	h.mu.Lock()
	h.subs[id] = sink
	h.mu.Unlock()

	h.logger.Debug("subscriber registered", "id", id)
	return id
}

// Unregister removes a subscriber. Returns false if the ID is unknown.
func (h *Hub) Unregister(id uuid.UUID) bool {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	if ok {
		h.logger.Debug("subscriber unregistered", "id", id)
	}
	return ok
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Clear removes all subscribers.
func (h *Hub) Clear() {
	h.mu.Lock()
	n := len(h.subs)
	h.subs = make(map[uuid.UUID]Sink)
	h.mu.Unlock()

	if n > 0 {
		h.logger.Debug("subscribers cleared", "count", n)
	}
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Subscribers: len(h.subs),
		Delivered:   h.delivered,
		Failed:      h.failed,
		Removed:     h.removed,
	}
}

// subscriberRef pairs a subscription ID with its sink for a broadcast
// snapshot.
type subscriberRef struct {
	id   uuid.UUID
	sink Sink
}

// Broadcast delivers the event to every subscriber registered at the moment
// the call begins, exactly once each, concurrently and independently. A
// subscriber whose delivery fails is unregistered. Broadcast returns only
// after every delivery has been attempted; it never returns an error to the
// caller.
func (h *Hub) Broadcast(ev model.Event) {
	h.mu.RLock()
	snapshot := make([]subscriberRef, 0, len(h.subs))
	for id, sink := range h.subs {
		snapshot = append(snapshot, subscriberRef{id: id, sink: sink})
	}
	h.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	failed := make(chan uuid.UUID, len(snapshot))

	var wg sync.WaitGroup
	for _, sub := range snapshot {
		wg.Add(1)
		go func(sub subscriberRef) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SendTimeout)
			defer cancel()

			if err := sub.sink.Deliver(ctx, ev); err != nil {
				h.logger.Warn("delivery failed",
					"id", sub.id,
					"kind", ev.Kind,
					"error", err,
				)
				failed <- sub.id
			}
		}(sub)
	}
	wg.Wait()
	close(failed)

	nFailed := 0
	for id := range failed {
		nFailed++
		if h.Unregister(id) {
			h.mu.Lock()
			h.removed++
			h.mu.Unlock()
			h.logger.Warn("subscriber removed after delivery failure", "id", id)
		}
	}

	h.mu.Lock()
	h.delivered += int64(len(snapshot) - nFailed)
	h.failed += int64(nFailed)
	h.mu.Unlock()
}
