// Package routing talks to an OSRM-compatible routing engine.
package routing

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
)

const (
	defaultBaseURL = "https://router.project-osrm.org"
	defaultProfile = "driving"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config captures the settings for the OSRM client.
type Config struct {
	BaseURL string
	Profile string
	Timeout time.Duration
}

// OSRMClient requests driving routes from OSRM's route service.
type OSRMClient struct {
	baseURL string
	profile string
	timeout time.Duration
	http    *http.Client
}

// NewOSRMClient returns a client with defaults applied for empty settings.
func NewOSRMClient(cfg Config) *OSRMClient {
	c := &OSRMClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		timeout: cfg.Timeout,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.profile == "" {
		c.profile = defaultProfile
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	c.http = &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
	return c
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Route returns the first route OSRM proposes between from and to.
func (c *OSRMClient) Route(ctx context.Context, from, to domain.LatLng) (domain.RouteQuote, error) {
	start := time.Now()
	quote, err := c.route(ctx, from, to)
	metrics.RouteRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return domain.RouteQuote{}, err
	}
	metrics.RouteRequestsTotal.WithLabelValues("ok").Inc()
	return quote, nil
}

func (c *OSRMClient) route(ctx context.Context, from, to domain.LatLng) (domain.RouteQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(from, to), nil)
	if err != nil {
		return domain.RouteQuote{}, fmt.Errorf("%w: build request: %v", domain.ErrRouteFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.RouteQuote{}, fmt.Errorf("%w: %v", domain.ErrRouteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return domain.RouteQuote{}, fmt.Errorf("%w: OSRM request failed with status %d", domain.ErrRouteFailed, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return domain.RouteQuote{}, fmt.Errorf("%w: decode response: %v", domain.ErrRouteFailed, err)
	}
	if body.Code != "" && body.Code != "Ok" {
		return domain.RouteQuote{}, fmt.Errorf("%w: OSRM returned %s: %s", domain.ErrRouteFailed, body.Code, body.Message)
	}
	if len(body.Routes) == 0 {
		return domain.RouteQuote{}, fmt.Errorf("%w: No route found", domain.ErrRouteFailed)
	}

	r := body.Routes[0]
	return domain.RouteQuote{
		DistanceKm: r.Distance / 1000,
		EtaMinutes: int(math.Round(r.Duration / 60)),
		Polyline:   domain.FromLngLat(r.Geometry.Coordinates),
	}, nil
}

// routeURL builds /route/v1/{profile}/{lng},{lat};{lng},{lat}. OSRM expects
// longitude first.
func (c *OSRMClient) routeURL(from, to domain.LatLng) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/route/v1/")
	b.WriteString(c.profile)
	b.WriteByte('/')
	b.WriteString(formatCoord(from.Lng))
	b.WriteByte(',')
	b.WriteString(formatCoord(from.Lat))
	b.WriteByte(';')
	b.WriteString(formatCoord(to.Lng))
	b.WriteByte(',')
	b.WriteString(formatCoord(to.Lat))
	b.WriteString("?overview=full&geometries=geojson")
	return b.String()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
