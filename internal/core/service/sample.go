package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

// Rejection reasons, also used as metric label values.
const (
	reasonMissingDeliveryID = "missing_delivery_id"
	reasonInvalidPosition   = "invalid_position"
	reasonForbidden         = "forbidden"
	reasonStore             = "store"
)

// sampleRejection carries the metric reason alongside the wrapped domain error.
type sampleRejection struct {
	reason string
	err    error
}

func (r *sampleRejection) Error() string { return r.err.Error() }
func (r *sampleRejection) Unwrap() error { return r.err }

func reject(reason, detail string) error {
	return &sampleRejection{
		reason: reason,
		err:    fmt.Errorf("%w: %s", domain.ErrInvalidSample, detail),
	}
}

// normalizeSample coerces a raw report into a PositionSample without a
// timestamp. Required fields reject the sample; malformed optional fields are
// dropped to nil.
func normalizeSample(raw ports.RawSample) (domain.PositionSample, error) {
	id, ok := domain.CanonicalID(raw["delivery_id"])
	if !ok {
		return domain.PositionSample{}, reject(reasonMissingDeliveryID, "delivery_id is missing")
	}

	lat, okLat := coerceNumber(raw["lat"])
	lng, okLng := coerceNumber(raw["lng"])
	if !okLat || !okLng {
		return domain.PositionSample{}, reject(reasonInvalidPosition, "lat and lng must be finite numbers")
	}

	s := domain.PositionSample{DeliveryID: id, Lat: lat, Lng: lng}
	if orderID, ok := domain.CanonicalID(raw["order_id"]); ok {
		s.OrderID = &orderID
	}
	if heading, ok := coerceNumber(raw["heading"]); ok {
		s.Heading = &heading
	}
	if speed, ok := coerceNumber(raw["speed"]); ok {
		s.Speed = &speed
	}
	if status, ok := raw["status"].(string); ok && strings.TrimSpace(status) != "" {
		s.Status = &status
	}
	return s, nil
}

// coerceNumber accepts finite numbers and numeric strings.
func coerceNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, finite(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
