package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

// RouteHandler exposes the route broker.
type RouteHandler struct {
	service ports.RouteService
}

// NewRouteHandler creates a RouteHandler backed by the given service.
func NewRouteHandler(service ports.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// Route handles GET /map/route.
//
// @Summary      Driving route between two points
// @Tags         map
// @Produce      json
// @Param        from_lat  query     number  true  "Origin latitude"
// @Param        from_lng  query     number  true  "Origin longitude"
// @Param        to_lat    query     number  true  "Destination latitude"
// @Param        to_lng    query     number  true  "Destination longitude"
// @Success      200       {object}  domain.RouteQuote
// @Failure      400       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /map/route [get]
func (h *RouteHandler) Route(c echo.Context) error {
	var from, to domain.LatLng
	err := echo.QueryParamsBinder(c).
		MustFloat64("from_lat", &from.Lat).
		MustFloat64("from_lng", &from.Lng).
		MustFloat64("to_lat", &to.Lat).
		MustFloat64("to_lng", &to.Lng).
		BindError()
	if err != nil {
		return domain.ErrInvalidCoordinates
	}

	quote, err := h.service.Quote(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quote)
}

// DeliveryETA handles GET /tracking/delivery/:id/eta.
//
// @Summary      Remaining route and ETA of a delivery
// @Tags         tracking
// @Produce      json
// @Param        id   path      string  true  "Delivery id"
// @Success      200  {object}  ports.DeliveryETA
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /tracking/delivery/{id}/eta [get]
func (h *RouteHandler) DeliveryETA(c echo.Context) error {
	eta, err := h.service.DeliveryETA(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, eta)
}
