package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// StreamAcceptor upgrades a request into a long-lived websocket session.
type StreamAcceptor interface {
	Accept(w http.ResponseWriter, r *http.Request, principal *domain.Principal) error
}

// StreamHandler serves the realtime channel.
type StreamHandler struct {
	acceptor StreamAcceptor
}

func NewStreamHandler(acceptor StreamAcceptor) *StreamHandler {
	return &StreamHandler{acceptor: acceptor}
}

// Connect handles GET /ws. The call returns when the connection closes.
//
// @Summary      Realtime tracking channel (websocket)
// @Tags         realtime
// @Param        access_token  query  string  false  "Optional token. Only authenticated callers may publish driver_location when publisher authorization is enabled"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /ws [get]
func (h *StreamHandler) Connect(c echo.Context) error {
	// The upgrader writes its own error response on failure.
	_ = h.acceptor.Accept(c.Response(), c.Request(), ctxPrincipal(c))
	return nil
}
