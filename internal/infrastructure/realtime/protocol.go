package realtime

import (
	"errors"

	json "github.com/goccy/go-json"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

var errInvalidID = errors.New("id must be a non-blank string or a finite number")

// Client events.
const (
	EventJoinDelivery   = "join_delivery"
	EventJoinOrder      = "join_order"
	EventLeaveDelivery  = "leave_delivery"
	EventLeaveOrder     = "leave_order"
	EventDriverLocation = "driver_location"
)

// envelope is the frame format in both directions.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// inboundFrame defers decoding of data until the event is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type deliveryRef struct {
	DeliveryID flexibleID `json:"delivery_id" validate:"required"`
}

type orderRef struct {
	OrderID flexibleID `json:"order_id" validate:"required"`
}

// flexibleID accepts a JSON string or number and stores it in the same
// canonical form the ingest pipeline uses for topic names.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	id, ok := domain.CanonicalID(v)
	if !ok {
		return errInvalidID
	}
	*f = flexibleID(id)
	return nil
}
