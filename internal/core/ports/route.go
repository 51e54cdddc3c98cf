package ports

import (
	"context"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// RouteProvider asks an external routing engine for a driving route.
type RouteProvider interface {
	Route(ctx context.Context, from, to domain.LatLng) (domain.RouteQuote, error)
}

// DeliveryETA is a route quote from a delivery's current position to its drop point.
type DeliveryETA struct {
	DeliveryID string        `json:"delivery_id"`
	OrderID    string        `json:"order_id"`
	Origin     string        `json:"origin"`
	From       domain.LatLng `json:"from"`
	To         domain.LatLng `json:"to"`
	domain.RouteQuote
}

// RouteService brokers route and ETA requests.
type RouteService interface {
	Quote(ctx context.Context, from, to domain.LatLng) (domain.RouteQuote, error)
	DeliveryETA(ctx context.Context, deliveryID string) (*DeliveryETA, error)
}
