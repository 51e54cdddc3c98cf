package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// OriginAllowList refuses browser requests whose Origin is not listed.
// Requests without an Origin header (curl, server-to-server, native apps)
// pass through.
func OriginAllowList(origins []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}
			if _, ok := allowed[origin]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Not allowed by CORS")
			}
			return next(c)
		}
	}
}
