package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/freshcart/delivery-service/docs"
	"github.com/freshcart/delivery-service/internal/api/handler"
	"github.com/freshcart/delivery-service/internal/api/middleware"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

// Options carries everything the router wires into handlers.
type Options struct {
	Tracking  ports.TrackingService
	Routes    ports.RouteService
	Stream    handler.StreamAcceptor
	Validator echo.Validator
	Readiness map[string]handler.Check

	AllowedOrigins []string
	BodyLimit      string
	JWTSecret      string
	// PublisherAuth requires a token on POST /tracking/location. On /ws a
	// token is optional and, when present, identifies the publisher.
	PublisherAuth bool
	// DeliveryETA registers GET /tracking/delivery/:id/eta.
	DeliveryETA bool
	// Metrics enables the HTTP metrics middleware and GET /metrics. Nil
	// leaves both out.
	Metrics prometheus.Registerer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = opts.Validator
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	if opts.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "delivery",
			Subsystem:  "http",
			Registerer: opts.Metrics,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
			},
		}))
	}
	e.Use(middleware.OriginAllowList(opts.AllowedOrigins))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	bodyLimit := opts.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "100K"
	}
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Handlers ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(opts.Readiness)
	trackingHandler := handler.NewTrackingHandler(opts.Tracking)
	routeHandler := handler.NewRouteHandler(opts.Routes)
	streamHandler := handler.NewStreamHandler(opts.Stream)

	var publisherMW, streamMW []echo.MiddlewareFunc
	if opts.PublisherAuth {
		publisherMW = append(publisherMW, middleware.Auth(opts.JWTSecret))
		streamMW = append(streamMW, middleware.OptionalAuth(opts.JWTSecret))
	}

	// --- Health checks (no auth required) ---
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Realtime channel ---
	e.GET("/ws", streamHandler.Connect, streamMW...)

	// --- Routing ---
	e.GET("/map/route", routeHandler.Route)

	// --- Tracking ---
	e.POST("/tracking/location", trackingHandler.Ingest, publisherMW...)
	e.GET("/tracking/delivery/:id", trackingHandler.GetByDelivery)
	e.GET("/tracking/order/:id", trackingHandler.GetByOrder)
	if opts.DeliveryETA {
		e.GET("/tracking/delivery/:id/eta", routeHandler.DeliveryETA)
	}
	if opts.JWTSecret != "" {
		e.DELETE("/tracking/delivery/:id", trackingHandler.Forget,
			middleware.Auth(opts.JWTSecret),
			middleware.RBAC(domain.RoleAdmin, domain.RoleOperator),
		)
	}

	// --- Ops ---
	if opts.Metrics != nil {
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
