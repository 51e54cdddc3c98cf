// Package memory holds the process-local tracking store.
package memory

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

const shardCount = 32

type entry struct {
	state   domain.TrackingState
	history *trail
}

type shard struct {
	mu         sync.RWMutex
	deliveries map[string]*entry
}

// TrackingStore keeps the latest state and a bounded trail per delivery.
// Deliveries are spread over shards by FNV hash so unrelated deliveries do
// not contend on one lock.
type TrackingStore struct {
	shards       [shardCount]*shard
	historyLimit int
}

// NewTrackingStore creates an empty store. A non-positive historyLimit falls
// back to domain.DefaultHistoryLimit.
func NewTrackingStore(historyLimit int) *TrackingStore {
	if historyLimit <= 0 {
		historyLimit = domain.DefaultHistoryLimit
	}
	s := &TrackingStore{historyLimit: historyLimit}
	for i := range s.shards {
		s.shards[i] = &shard{deliveries: make(map[string]*entry)}
	}
	return s
}

// Upsert overwrites the delivery's state and appends the position to its trail.
func (s *TrackingStore) Upsert(sample domain.PositionSample) (domain.TrackingState, error) {
	if sample.DeliveryID == "" {
		return domain.TrackingState{}, fmt.Errorf("%w: empty delivery_id", domain.ErrInvalidSample)
	}
	if !sample.Point().Valid() {
		return domain.TrackingState{}, fmt.Errorf("%w: non-finite position", domain.ErrInvalidSample)
	}

	state := sample.Clone()
	sh := s.shardFor(sample.DeliveryID)

	sh.mu.Lock()
	e, ok := sh.deliveries[sample.DeliveryID]
	if !ok {
		e = &entry{history: newTrail(s.historyLimit)}
		sh.deliveries[sample.DeliveryID] = e
	}
	e.state = state
	e.history.push(domain.HistoryPoint{Lat: state.Lat, Lng: state.Lng, ObservedAt: state.ObservedAt})
	sh.mu.Unlock()

	return state.Clone(), nil
}

// Get returns a copy of the delivery's latest state.
func (s *TrackingStore) Get(deliveryID string) (domain.TrackingState, bool) {
	sh := s.shardFor(deliveryID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.deliveries[deliveryID]
	if !ok {
		return domain.TrackingState{}, false
	}
	return e.state.Clone(), true
}

// History returns a copy of the delivery's trail, oldest first.
func (s *TrackingStore) History(deliveryID string) []domain.HistoryPoint {
	sh := s.shardFor(deliveryID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.deliveries[deliveryID]
	if !ok {
		return []domain.HistoryPoint{}
	}
	return e.history.snapshot()
}

// FindByOrder scans every shard for a delivery linked to orderID. When more
// than one delivery matches, the most recently updated one wins.
func (s *TrackingStore) FindByOrder(orderID string) (domain.TrackingState, bool) {
	if orderID == "" {
		return domain.TrackingState{}, false
	}

	var (
		found domain.TrackingState
		ok    bool
	)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.deliveries {
			if e.state.OrderID == nil || *e.state.OrderID != orderID {
				continue
			}
			if !ok || e.state.ObservedAt.After(found.ObservedAt) {
				found, ok = e.state, true
			}
		}
		sh.mu.RUnlock()
	}
	if !ok {
		return domain.TrackingState{}, false
	}
	return found.Clone(), true
}

// Forget removes a delivery. It reports whether the delivery was present.
func (s *TrackingStore) Forget(deliveryID string) bool {
	sh := s.shardFor(deliveryID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.deliveries[deliveryID]; !ok {
		return false
	}
	delete(sh.deliveries, deliveryID)
	return true
}

// Sweep removes deliveries whose latest sample was observed before cutoff and
// returns their ids.
func (s *TrackingStore) Sweep(cutoff time.Time) []string {
	var removed []string
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.deliveries {
			if e.state.ObservedAt.Before(cutoff) {
				delete(sh.deliveries, id)
				removed = append(removed, id)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked deliveries.
func (s *TrackingStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.deliveries)
		sh.mu.RUnlock()
	}
	return n
}

func (s *TrackingStore) shardFor(deliveryID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deliveryID))
	return s.shards[h.Sum32()%shardCount]
}
