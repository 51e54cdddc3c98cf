package domain

import "errors"

var (
	ErrInvalidSample      = errors.New("delivery_id, lat and lng are required")
	ErrInvalidCoordinates = errors.New("from_lat, from_lng, to_lat, to_lng are required numbers")
	ErrTrackingNotFound   = errors.New("tracking not found")
	ErrDeliveryNotFound   = errors.New("delivery not found")
	ErrRouteFailed        = errors.New("route request failed")
	ErrForbidden          = errors.New("access forbidden")
)
