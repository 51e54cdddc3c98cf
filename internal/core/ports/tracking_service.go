package ports

import (
	"context"
	"fmt"
	"strconv"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// RawSample is an undecoded location report as sent by a publisher.
type RawSample map[string]any

// DeliveryKey returns a stable string for the delivery_id field, used for
// sharding before the sample is normalised.
func (r RawSample) DeliveryKey() string {
	switch v := r["delivery_id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// IngestInput is the DTO passed from either ingress to TrackingService.
type IngestInput struct {
	Raw       RawSample
	Principal *domain.Principal // nil when the caller is anonymous
	Transport string
}

// DeliveryTracking is the answer to a per-delivery query.
type DeliveryTracking struct {
	Tracking domain.TrackingState  `json:"tracking"`
	History  []domain.HistoryPoint `json:"history"`
}

// TrackingService is the single ingestion pipeline plus its read side.
type TrackingService interface {
	Ingest(ctx context.Context, in IngestInput) (domain.TrackingState, error)
	GetByDelivery(ctx context.Context, deliveryID string) (*DeliveryTracking, error)
	GetByOrder(ctx context.Context, orderID string) (domain.TrackingState, error)
	Forget(ctx context.Context, deliveryID string) error
}

// Publisher fans a named event out to every subscriber of a topic and
// returns how many subscribers it reached.
type Publisher interface {
	Publish(topic domain.Topic, event string, payload any) int
}
