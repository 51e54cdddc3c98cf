package ports

import (
	"time"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// TrackingStore holds the latest state and bounded history per delivery.
// Implementations must be safe for concurrent use and return copies.
type TrackingStore interface {
	// Upsert replaces the delivery's state and appends to its history,
	// evicting the oldest point beyond the history limit.
	Upsert(sample domain.PositionSample) (domain.TrackingState, error)
	Get(deliveryID string) (domain.TrackingState, bool)
	// History returns points oldest first; empty when the delivery is unknown.
	History(deliveryID string) []domain.HistoryPoint
	// FindByOrder returns the state of any delivery currently linked to orderID.
	FindByOrder(orderID string) (domain.TrackingState, bool)
	// Forget drops state and history for a delivery.
	Forget(deliveryID string) bool
	// Sweep drops every delivery whose latest sample is older than cutoff.
	Sweep(cutoff time.Time) []string
	Len() int
}
