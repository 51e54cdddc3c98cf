package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshcart/delivery-service/internal/core/ports"
)

// TrackingHandler handles position ingestion and tracking queries.
type TrackingHandler struct {
	service ports.TrackingService
	binder  echo.DefaultBinder
}

// NewTrackingHandler creates a TrackingHandler backed by the given service.
func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// Ingest handles POST /tracking/location.
//
// @Summary      Publish a driver position
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      locationRequest  true  "Position sample"
// @Success      200   {object}  ingestResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /tracking/location [post]
func (h *TrackingHandler) Ingest(c echo.Context) error {
	var raw ports.RawSample
	if err := h.binder.BindBody(c, &raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if raw == nil {
		raw = ports.RawSample{}
	}

	state, err := h.service.Ingest(c.Request().Context(), ports.IngestInput{
		Raw:       raw,
		Principal: ctxPrincipal(c),
		Transport: TransportHTTP,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ingestResponse{OK: true, Tracking: state})
}

// GetByDelivery handles GET /tracking/delivery/:id.
//
// @Summary      Latest position and trail of a delivery
// @Tags         tracking
// @Produce      json
// @Param        id   path      string  true  "Delivery id"
// @Success      200  {object}  ports.DeliveryTracking
// @Failure      404  {object}  errorResponse
// @Router       /tracking/delivery/{id} [get]
func (h *TrackingHandler) GetByDelivery(c echo.Context) error {
	result, err := h.service.GetByDelivery(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetByOrder handles GET /tracking/order/:id.
//
// @Summary      Latest position of the delivery serving an order
// @Tags         tracking
// @Produce      json
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderTrackingResponse
// @Failure      404  {object}  errorResponse
// @Router       /tracking/order/{id} [get]
func (h *TrackingHandler) GetByOrder(c echo.Context) error {
	state, err := h.service.GetByOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderTrackingResponse{Tracking: state})
}

// Forget handles DELETE /tracking/delivery/:id. The order subsystem calls it
// once a delivery is complete.
//
// @Summary      Drop a completed delivery's tracking state
// @Tags         tracking
// @Security     BearerAuth
// @Param        id   path  string  true  "Delivery id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tracking/delivery/{id} [delete]
func (h *TrackingHandler) Forget(c echo.Context) error {
	if err := h.service.Forget(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
