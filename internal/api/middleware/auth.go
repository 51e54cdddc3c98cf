package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// principalKey is the echo context key holding the authenticated
// *domain.Principal. Handlers read the same key.
const principalKey = "principal"

// tokenQueryParam carries the token on websocket upgrades, where browsers
// cannot set an Authorization header.
const tokenQueryParam = "access_token"

// Auth validates an HS256 JWT and injects the caller as a *domain.Principal.
// The subject is read from "sub" and the role from "role". The token is taken
// from the Authorization header, or from the access_token query parameter
// when the header is absent.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			p, err := verify(raw, jwtSecret)
			if err != nil {
				return err
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// OptionalAuth lets anonymous requests through without a principal. A token
// that is present must still be valid.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" && c.QueryParam(tokenQueryParam) == "" {
				return next(c)
			}
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			p, err := verify(raw, jwtSecret)
			if err != nil {
				return err
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

func verify(raw, jwtSecret string) (*domain.Principal, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	subject := subjectOf(claims["sub"])
	if subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}
	role, _ := claims["role"].(string)
	return &domain.Principal{Subject: subject, Role: role}, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if q := c.QueryParam(tokenQueryParam); q != "" {
			return q, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// subjectOf accepts string subjects and the numeric ids some issuers emit.
func subjectOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
