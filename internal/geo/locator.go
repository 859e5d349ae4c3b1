package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrPermissionDenied is returned by a Locator when the user has not allowed
// location access.
var ErrPermissionDenied = errors.New("location permission denied")

// Locator answers a one-shot "where am I" query.
type Locator interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

// StaticLocator always reports the same fix.
type StaticLocator struct {
	Fix Coordinate
}

func (s StaticLocator) CurrentPosition(context.Context) (Coordinate, error) {
	return s.Fix, nil
}

// DeniedLocator models a device on which location access is switched off.
type DeniedLocator struct{}

func (DeniedLocator) CurrentPosition(context.Context) (Coordinate, error) {
	return Coordinate{}, ErrPermissionDenied
}

const (
	defaultIPEndpoint = "https://ipwho.is/"
	locatorTimeout    = 5 * time.Second
	locatorUserAgent  = "myway/0.1"
)

// IPLocator estimates the position from the public IP address.
type IPLocator struct {
	endpoint string
	http     *http.Client
}

// NewIPLocator builds an IPLocator. An empty endpoint uses ipwho.is.
func NewIPLocator(endpoint string) *IPLocator {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = defaultIPEndpoint
	}
	return &IPLocator{
		endpoint: endpoint,
		http:     &http.Client{Timeout: locatorTimeout},
	}
}

type ipLookupResponse struct {
	Success   *bool   `json:"success"`
	Message   string  `json:"message"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CurrentPosition queries the IP geolocation endpoint once.
func (l *IPLocator) CurrentPosition(ctx context.Context) (Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", locatorUserAgent)

	resp, err := l.http.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Coordinate{}, fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}
	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinate{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Success != nil && !*payload.Success {
		return Coordinate{}, fmt.Errorf("ip lookup failed: %s", payload.Message)
	}
	return Coordinate{Latitude: payload.Latitude, Longitude: payload.Longitude}, nil
}
