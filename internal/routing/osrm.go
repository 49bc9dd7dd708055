package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// OSRMClient talks to an OSRM routing server. Raw OSRM results are biased
// against ground truth for local roads, so corrections are applied
// multiplicatively before anything leaves this package.
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client

	distanceCorrection float64
	durationCorrection float64

	distanceTimeout     time.Duration
	geometryTimeout     time.Duration
	alternativesTimeout time.Duration
}

// OSRMOptions configures an OSRMClient. Zero values fall back to the
// production defaults.
type OSRMOptions struct {
	BaseURL             string
	DistanceCorrection  float64
	DurationCorrection  float64
	DistanceTimeout     time.Duration
	GeometryTimeout     time.Duration
	AlternativesTimeout time.Duration
}

// NewOSRMClient creates a routing provider backed by OSRM.
func NewOSRMClient(opts OSRMOptions) *OSRMClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://router.project-osrm.org"
	}
	if opts.DistanceCorrection == 0 {
		opts.DistanceCorrection = 1.10
	}
	if opts.DurationCorrection == 0 {
		opts.DurationCorrection = 1.25
	}
	if opts.DistanceTimeout == 0 {
		opts.DistanceTimeout = 5 * time.Second
	}
	if opts.GeometryTimeout == 0 {
		opts.GeometryTimeout = 20 * time.Second
	}
	if opts.AlternativesTimeout == 0 {
		opts.AlternativesTimeout = 5 * time.Second
	}

	return &OSRMClient{
		baseURL:             opts.BaseURL,
		httpClient:          &http.Client{},
		distanceCorrection:  opts.DistanceCorrection,
		durationCorrection:  opts.DurationCorrection,
		distanceTimeout:     opts.DistanceTimeout,
		geometryTimeout:     opts.GeometryTimeout,
		alternativesTimeout: opts.AlternativesTimeout,
	}
}

type osrmGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type osrmRoute struct {
	Distance float64      `json:"distance"` // meters
	Duration float64      `json:"duration"` // seconds
	Geometry osrmGeometry `json:"geometry"`
}

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

// RoadDistance returns corrected road distance and duration for the
// primary route, without geometry.
func (c *OSRMClient) RoadDistance(ctx context.Context, origin, dest Coord) (DistanceResult, error) {
	resp, err := c.route(ctx, origin, dest, url.Values{
		"overview":    {"false"},
		"annotations": {"false"},
	}, c.distanceTimeout)
	if err != nil {
		return DistanceResult{}, err
	}

	km, min := c.correct(resp.Routes[0].Distance, resp.Routes[0].Duration)
	return DistanceResult{DistanceKm: km, DurationMinutes: min}, nil
}

// RouteGeometry returns the primary route with a simplified polyline.
func (c *OSRMClient) RouteGeometry(ctx context.Context, origin, dest Coord) (Route, error) {
	resp, err := c.route(ctx, origin, dest, url.Values{
		"overview":   {"simplified"},
		"geometries": {"geojson"},
	}, c.geometryTimeout)
	if err != nil {
		return Route{}, err
	}

	r := resp.Routes[0]
	km, min := c.correct(r.Distance, r.Duration)
	return Route{
		DistanceKm:      km,
		DurationMinutes: min,
		Geometry:        r.Geometry.Coordinates,
	}, nil
}

// AlternativeRoutes returns up to three full-geometry route options.
func (c *OSRMClient) AlternativeRoutes(ctx context.Context, origin, dest Coord) ([]Route, error) {
	resp, err := c.route(ctx, origin, dest, url.Values{
		"overview":     {"full"},
		"geometries":   {"geojson"},
		"alternatives": {"true"},
	}, c.alternativesTimeout)
	if err != nil {
		return nil, err
	}

	routes := make([]Route, 0, 3)
	for i, r := range resp.Routes {
		if i == 3 {
			break
		}
		km, min := c.correct(r.Distance, r.Duration)
		routes = append(routes, Route{
			RouteIndex:      i,
			DistanceKm:      km,
			DurationMinutes: min,
			Geometry:        r.Geometry.Coordinates,
		})
	}
	return routes, nil
}

// route performs one bounded OSRM request. OSRM takes coordinates as
// lng,lat pairs.
func (c *OSRMClient) route(ctx context.Context, origin, dest Coord, params url.Values, timeout time.Duration) (*osrmResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		c.baseURL,
		origin.Lng, origin.Lat,
		dest.Lng, dest.Lat,
		params.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("osrm returned no routes: %s", parsed.Code)
	}

	return &parsed, nil
}

// correct applies the correction factors. Very short hops can round to a
// zero-minute ETA; anything beyond 100 m gets a one-minute floor.
func (c *OSRMClient) correct(distanceMeters, durationSeconds float64) (float64, int) {
	km := distanceMeters / 1000 * c.distanceCorrection
	min := int(durationSeconds / 60 * c.durationCorrection)
	if min == 0 && km > 0.1 {
		min = 1
	}
	return km, min
}
