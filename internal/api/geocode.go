package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UnknownLocation is the placeholder used when reverse geocoding fails.
// Flood reports still go through with it; the map position carries the
// real coordinates.
const UnknownLocation = "Unknown location"

// Geocoder resolves coordinates to human-readable place names against a
// Nominatim-style endpoint. It is unauthenticated and separate from the
// backend client.
type Geocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeocoder returns a Geocoder rooted at baseURL.
func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ReverseGeocode resolves lat/lng to a display name. Lookup failures are
// not fatal: the caller gets UnknownLocation and a nil error so a flood
// report can still be filed.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("format", "json")

	reqURL := g.baseURL + "/reverse?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return UnknownLocation, fmt.Errorf("building geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return UnknownLocation, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation, nil
	}

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UnknownLocation, nil
	}
	if result.DisplayName == "" {
		return UnknownLocation, nil
	}
	return result.DisplayName, nil
}
