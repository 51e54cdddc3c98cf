// Package realtime implements the websocket channel: topic subscriptions,
// fan-out of tracking updates and the per-connection read/write pumps.
package realtime

import (
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
)

// Subscriber is one connection as seen by the hub.
type Subscriber interface {
	ID() string
	// Deliver queues a frame without blocking. It returns false when the
	// subscriber cannot take more frames or is already closed.
	Deliver(frame []byte) bool
}

// Hub maps topics to their subscribers and keeps the reverse index so a
// closing connection can leave every topic at once.
type Hub struct {
	mu          sync.RWMutex
	topics      map[domain.Topic]map[Subscriber]struct{}
	memberships map[Subscriber]map[domain.Topic]struct{}
	log         zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		topics:      make(map[domain.Topic]map[Subscriber]struct{}),
		memberships: make(map[Subscriber]map[domain.Topic]struct{}),
		log:         log,
	}
}

// Subscribe adds sub to topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(sub Subscriber, topic domain.Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.topics[topic]
	if !ok {
		members = make(map[Subscriber]struct{})
		h.topics[topic] = members
	}
	if _, already := members[sub]; already {
		return
	}
	members[sub] = struct{}{}

	joined, ok := h.memberships[sub]
	if !ok {
		joined = make(map[domain.Topic]struct{})
		h.memberships[sub] = joined
	}
	joined[topic] = struct{}{}
	metrics.RealtimeSubscriptions.WithLabelValues(topic.Namespace()).Inc()
}

// Unsubscribe removes sub from topic. Unknown pairs are ignored.
func (h *Hub) Unsubscribe(sub Subscriber, topic domain.Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, topic)
}

// Disconnect removes sub from every topic in one critical section and returns
// how many memberships it held.
func (h *Hub) Disconnect(sub Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := h.memberships[sub]
	n := len(joined)
	for topic := range joined {
		h.removeLocked(sub, topic)
	}
	delete(h.memberships, sub)
	return n
}

func (h *Hub) removeLocked(sub Subscriber, topic domain.Topic) {
	members, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := members[sub]; !ok {
		return
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
	if joined, ok := h.memberships[sub]; ok {
		delete(joined, topic)
		if len(joined) == 0 {
			delete(h.memberships, sub)
		}
	}
	metrics.RealtimeSubscriptions.WithLabelValues(topic.Namespace()).Dec()
}

// Publish encodes the event once and hands it to every subscriber of topic.
// Subscribers that cannot keep up are disconnected. Publishing to a topic
// nobody joined does nothing.
func (h *Hub) Publish(topic domain.Topic, event string, payload any) int {
	h.mu.RLock()
	members := h.topics[topic]
	if len(members) == 0 {
		h.mu.RUnlock()
		return 0
	}

	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		h.mu.RUnlock()
		h.log.Error().Err(err).Str("topic", string(topic)).Msg("encode broadcast frame")
		return 0
	}

	var (
		sent int
		slow []Subscriber
	)
	for sub := range members {
		if sub.Deliver(frame) {
			sent++
		} else {
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	ns := topic.Namespace()
	metrics.BroadcastFramesTotal.WithLabelValues(ns, "sent").Add(float64(sent))
	for _, sub := range slow {
		metrics.BroadcastFramesTotal.WithLabelValues(ns, "dropped").Inc()
		h.log.Warn().Str("conn_id", sub.ID()).Str("topic", string(topic)).Msg("subscriber too slow, disconnecting")
		h.Disconnect(sub)
	}
	return sent
}

// Subscribers returns the number of subscribers on topic.
func (h *Hub) Subscribers(topic domain.Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Topics returns the topics sub currently belongs to.
func (h *Hub) Topics(sub Subscriber) []domain.Topic {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Topic, 0, len(h.memberships[sub]))
	for topic := range h.memberships[sub] {
		out = append(out, topic)
	}
	return out
}
