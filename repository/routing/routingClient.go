package routingrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bookrider/model"
	"bookrider/util/httpx"
)

var (
	// ErrNoRoute means the provider answered but found no drivable route.
	ErrNoRoute = errors.New("routing: no route found")
	// ErrNoResult means the geocoder returned an empty result set.
	ErrNoResult = errors.New("geocode: address not found")
)

type Provider interface {
	// Route returns the driving distance in kilometers between two points.
	Route(ctx context.Context, from, to model.Coordinates) (float64, error)
	Geocode(ctx context.Context, street, city, postalCode string) (model.Coordinates, error)
}

type httpProvider struct {
	routingBaseURL  string
	geocoderBaseURL string
	client          *http.Client
}

func NewHTTP(routingBaseURL, geocoderBaseURL string) Provider {
	return &httpProvider{
		routingBaseURL:  routingBaseURL,
		geocoderBaseURL: geocoderBaseURL,
		client:          httpx.Client(),
	}
}

// OSRM route response, trimmed to what we read.
type routeResp struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (p *httpProvider) Route(ctx context.Context, from, to model.Coordinates) (float64, error) {
	// OSRM wants lng,lat pairs
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		p.routingBaseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("routing provider: %s", resp.Status)
	}

	var out routeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("routing decode: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return 0, ErrNoRoute
	}
	return out.Routes[0].Distance / 1000.0, nil
}

func (p *httpProvider) Geocode(ctx context.Context, street, city, postalCode string) (model.Coordinates, error) {
	q := url.Values{}
	q.Set("street", street)
	q.Set("city", city)
	q.Set("postalcode", postalCode)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.geocoderBaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, err
	}
	req.Header.Set("User-Agent", "bookrider/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return model.Coordinates{}, fmt.Errorf("geocoder: %s", resp.Status)
	}

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return model.Coordinates{}, fmt.Errorf("geocode decode: %w", err)
	}
	if len(hits) == 0 {
		return model.Coordinates{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocode lat: %w", err)
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocode lon: %w", err)
	}
	return model.Coordinates{Lat: lat, Lng: lng}, nil
}
