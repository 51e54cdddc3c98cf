package handler

import (
	"github.com/freshcart/delivery-service/internal/core/domain"
)

// TransportHTTP labels samples posted through the REST endpoint.
const TransportHTTP = "http"

// locationRequest documents the POST /tracking/location body. The handler
// decodes the body loosely; numeric fields may also arrive as strings.
type locationRequest struct {
	DeliveryID string   `json:"delivery_id" example:"D1"`
	OrderID    string   `json:"order_id"    example:"42"`
	Lat        float64  `json:"lat"         example:"12.97"`
	Lng        float64  `json:"lng"         example:"77.59"`
	Heading    *float64 `json:"heading"     example:"90"`
	Speed      *float64 `json:"speed"       example:"8.5"`
	Status     string   `json:"status"      example:"on_the_way"`
}

type ingestResponse struct {
	OK       bool                 `json:"ok"`
	Tracking domain.TrackingState `json:"tracking"`
}

type orderTrackingResponse struct {
	Tracking domain.TrackingState `json:"tracking"`
}

type errorResponse struct {
	Message string `json:"message"`
}
