package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub is an in-process Feed for single-instance deployments and tests. It
// remembers the newest event per match and replays it to new subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	last map[string]Event
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		last: make(map[string]Event),
	}
}

// Publish delivers event to every subscriber of its match. Events older than
// the last one seen for the match are dropped.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.last[event.MatchID]; ok && prev.Version >= event.Version {
		log.Debug().
			Str("match_id", event.MatchID).
			Int64("version", event.Version).
			Int64("last_version", prev.Version).
			Msg("dropping stale event")
		return nil
	}
	h.last[event.MatchID] = event

	for sub := range h.subs[event.MatchID] {
		sub.offer(event)
	}
	return nil
}

// Subscribe registers a subscriber for matchID. The subscription ends when
// ctx is done or Close is called.
func (h *Hub) Subscribe(ctx context.Context, matchID string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Registered under the lock so a concurrent cancel removes it afterwards.
	var sub *Subscription
	sub = newSubscription(ctx, func() { h.remove(matchID, sub) })
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[*Subscription]struct{})
	}
	h.subs[matchID][sub] = struct{}{}
	if ev, ok := h.last[matchID]; ok {
		sub.offer(ev)
	}
	return sub, nil
}

// Subscribers returns the number of open subscriptions for matchID.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[matchID])
}

func (h *Hub) remove(matchID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[matchID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subs, matchID)
	}
}
