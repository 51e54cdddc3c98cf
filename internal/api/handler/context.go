package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// ContextKeyPrincipal is where the auth middleware stores the verified caller.
// It matches the key set in the middleware package.
const ContextKeyPrincipal = "principal"

// ctxPrincipal returns the caller injected by the Auth middleware, or nil on
// routes that do not require a token.
func ctxPrincipal(c echo.Context) *domain.Principal {
	p, _ := c.Get(ContextKeyPrincipal).(*domain.Principal)
	return p
}
