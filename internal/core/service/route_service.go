package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

const (
	originLive   = "live"
	originPickup = "pickup"
)

// PositionReader is the slice of the tracking store the route service needs.
type PositionReader interface {
	Get(deliveryID string) (domain.TrackingState, bool)
}

type routeService struct {
	provider  ports.RouteProvider
	directory ports.DeliveryDirectory
	positions PositionReader
	log       zerolog.Logger
}

// NewRouteService returns a RouteService implementation. directory may be nil,
// in which case DeliveryETA reports every delivery as unknown.
func NewRouteService(
	provider ports.RouteProvider,
	directory ports.DeliveryDirectory,
	positions PositionReader,
	log zerolog.Logger,
) ports.RouteService {
	return &routeService{
		provider:  provider,
		directory: directory,
		positions: positions,
		log:       log,
	}
}

// Quote validates both endpoints and asks the provider for a route. Every
// provider failure is reported as ErrRouteFailed; the call is not retried.
func (s *routeService) Quote(ctx context.Context, from, to domain.LatLng) (domain.RouteQuote, error) {
	if !from.Valid() || !to.Valid() {
		return domain.RouteQuote{}, domain.ErrInvalidCoordinates
	}

	quote, err := s.provider.Route(ctx, from, to)
	if err != nil {
		s.log.Warn().Err(err).
			Float64("from_lat", from.Lat).Float64("from_lng", from.Lng).
			Float64("to_lat", to.Lat).Float64("to_lng", to.Lng).
			Msg("route request failed")
		if errors.Is(err, domain.ErrRouteFailed) {
			return domain.RouteQuote{}, err
		}
		return domain.RouteQuote{}, fmt.Errorf("%w: %v", domain.ErrRouteFailed, err)
	}
	if quote.Polyline == nil {
		quote.Polyline = [][2]float64{}
	}
	return quote, nil
}

// DeliveryETA quotes the remaining route of a delivery: from its latest
// tracked position, or from pickup when it has not reported yet, to drop.
func (s *routeService) DeliveryETA(ctx context.Context, deliveryID string) (*ports.DeliveryETA, error) {
	deliveryID = pathID(deliveryID)
	if s.directory == nil || deliveryID == "" {
		return nil, fmt.Errorf("delivery %s: %w", deliveryID, domain.ErrDeliveryNotFound)
	}

	d, err := s.directory.FindDelivery(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("delivery eta: %w", err)
	}

	if d.Drop == nil {
		return nil, fmt.Errorf("%w: delivery %s has no drop location", domain.ErrInvalidCoordinates, deliveryID)
	}

	var (
		from   domain.LatLng
		origin string
	)
	switch state, ok := s.positions.Get(deliveryID); {
	case ok:
		from, origin = state.Point(), originLive
	case d.Pickup != nil:
		from, origin = *d.Pickup, originPickup
	default:
		return nil, fmt.Errorf("%w: delivery %s has neither a position nor a pickup location", domain.ErrInvalidCoordinates, deliveryID)
	}

	quote, err := s.Quote(ctx, from, *d.Drop)
	if err != nil {
		return nil, err
	}

	return &ports.DeliveryETA{
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		Origin:     origin,
		From:       from,
		To:         *d.Drop,
		RouteQuote: quote,
	}, nil
}
