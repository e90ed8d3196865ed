package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultReverseURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"
	DefaultForwardURL = "https://api.bigdatacloud.net/data/forward-geocode"

	maxResponseBytes = 1 << 20
)

var (
	ErrRequestFailed = errors.New("geocoding request failed")
	ErrBadResponse   = errors.New("geocoding response could not be parsed")
)

// Place is the reverse-geocoding answer for a coordinate pair.
type Place struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

// Candidate is one forward-geocoding match.
type Candidate struct {
	City       string  `json:"city"`
	AdminArea1 string  `json:"adminArea1"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Reverser resolves coordinates to a place.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

// Forwarder resolves a free-text query to candidate places.
type Forwarder interface {
	Forward(ctx context.Context, query string) ([]Candidate, error)
}

// Config describes the geocoding endpoints.
type Config struct {
	ReverseURL string
	ForwardURL string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	Burst      int
}

// Client talks to a BigDataCloud compatible geocoding API.
type Client struct {
	reverseURL string
	forwardURL string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client. Zero values fall back to the public endpoints,
// a ten second timeout and an unthrottled limiter.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		reverseURL: valueOrDefault(cfg.ReverseURL, DefaultReverseURL),
		forwardURL: valueOrDefault(cfg.ForwardURL, DefaultForwardURL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Reverse looks up the place at the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("localityLanguage", "en")

	var place Place
	if err := c.getJSON(ctx, c.reverseURL, params, &place); err != nil {
		return Place{}, err
	}
	return place, nil
}

// Forward searches for places matching the query.
func (c *Client) Forward(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var payload struct {
		Results []Candidate `json:"results"`
	}
	if err := c.getJSON(ctx, c.forwardURL, params, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[geocode] request to %s failed: %v", endpoint, err)
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[geocode] %s returned status=%d", endpoint, resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
