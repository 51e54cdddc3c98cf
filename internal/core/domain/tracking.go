package domain

import (
	"math"
	"time"
)

// DefaultHistoryLimit is the number of points kept per delivery when no
// explicit limit is configured.
const DefaultHistoryLimit = 200

// EventTrackingUpdate is the event name published to observers after a
// sample is accepted.
const EventTrackingUpdate = "tracking:update"

// PositionSample is a normalised location report for one delivery. Optional
// fields are nil when the publisher did not send a usable value.
type PositionSample struct {
	DeliveryID string    `json:"delivery_id"`
	OrderID    *string   `json:"order_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Heading    *float64  `json:"heading"`
	Speed      *float64  `json:"speed"`
	Status     *string   `json:"status"`
	ObservedAt time.Time `json:"updated_at"`
}

// TrackingState is the most recently accepted sample of a delivery.
type TrackingState = PositionSample

// HasOrder reports whether the sample is linked to an order.
func (s PositionSample) HasOrder() bool {
	return s.OrderID != nil && *s.OrderID != ""
}

// Point returns the sample position.
func (s PositionSample) Point() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s PositionSample) Clone() PositionSample {
	out := s
	if s.OrderID != nil {
		v := *s.OrderID
		out.OrderID = &v
	}
	if s.Heading != nil {
		v := *s.Heading
		out.Heading = &v
	}
	if s.Speed != nil {
		v := *s.Speed
		out.Speed = &v
	}
	if s.Status != nil {
		v := *s.Status
		out.Status = &v
	}
	return out
}

// HistoryPoint is one entry of a delivery's movement trail.
type HistoryPoint struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ObservedAt time.Time `json:"updated_at"`
}

// LatLng is a WGS84 position in latitude-first order.
type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether both components are finite numbers.
func (p LatLng) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
