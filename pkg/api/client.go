// Package api is the HTTP client for the journey-tracking backend. It builds
// authenticated JSON requests against a fixed base address and classifies
// every failure into the taxonomy in errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Client talks to the journey-tracking REST API. It is stateless apart from
// the bearer token and a short-lived reverse-geocode memo.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	// Reverse-geocode results for a coordinate are stable for far longer
	// than a journey, so identical lookups within a few minutes are served
	// from memory.
	geocodeMemo *gocache.Cache
}

// NewClient creates a client for the given base address, e.g.
// "https://tracker.example.net/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		geocodeMemo: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// SetAuthToken sets or clears the bearer token attached to every request.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// AuthToken returns the currently attached bearer token.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do performs one JSON round trip. body may be nil; out may be nil for
// endpoints whose payload the caller does not need.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	reqURL := c.baseURL + path
	if _, err := url.Parse(reqURL); err != nil {
		return &Error{Kind: KindInvalidURL}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindEncoding, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return &Error{Kind: KindInvalidURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if len(data) == 0 {
			return &Error{Kind: KindInvalidResponse}
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindDecoding, Err: err}
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized}
	default:
		var envelope errorResponse
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.text() != "" {
			return &Error{Kind: KindServer, Message: envelope.text()}
		}
		if len(data) == 0 {
			return &Error{Kind: KindInvalidResponse}
		}
		return &Error{Kind: KindServer, Message: fmt.Sprintf("server returned status %d", resp.StatusCode)}
	}
}

// Register creates an account, returning the server's confirmation message.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp RegisterResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a bearer token. The token is returned, not
// attached; the auth manager owns attachment and persistence.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &Error{Kind: KindInvalidResponse}
	}
	return resp.AccessToken, nil
}

// ValidateToken probes the lightweight authenticated endpoint. A nil error
// means the stored token is still live.
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/validate", nil, nil)
}

// GetProfile fetches the user profile with aggregate journey statistics.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// StartJourney begins a tracked journey at the given coordinates. The server
// resolves the postcode.
func (c *Client) StartJourney(ctx context.Context, latitude, longitude float64) (*JourneyActionResponse, error) {
	var resp JourneyActionResponse
	body := map[string]float64{"latitude": latitude, "longitude": longitude}
	if err := c.do(ctx, http.MethodPost, "/journey/start", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EndJourney completes the active journey at the given coordinates.
func (c *Client) EndJourney(ctx context.Context, latitude, longitude float64) (*JourneyActionResponse, error) {
	var resp JourneyActionResponse
	body := map[string]float64{"latitude": latitude, "longitude": longitude}
	if err := c.do(ctx, http.MethodPost, "/journey/end", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetActiveJourney asks whether a journey is currently in progress.
func (c *Client) GetActiveJourney(ctx context.Context) (*ActiveJourneyResponse, error) {
	var resp ActiveJourneyResponse
	if err := c.do(ctx, http.MethodGet, "/journey/active", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJourneys fetches the user's full journey history.
func (c *Client) GetJourneys(ctx context.Context) ([]Journey, error) {
	var resp JourneysResponse
	if err := c.do(ctx, http.MethodGet, "/journeys", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Kind: KindServer, Message: "failed to load journeys"}
	}
	return resp.Journeys, nil
}

// CreateManualJourney records a journey between two postcodes without any
// coordinates involved.
func (c *Client) CreateManualJourney(ctx context.Context, startPostcode, endPostcode string) (*JourneyActionResponse, error) {
	var resp JourneyActionResponse
	body := map[string]string{
		"start_postcode": startPostcode,
		"end_postcode":   endPostcode,
	}
	if err := c.do(ctx, http.MethodPost, "/journey/manual", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateJourneyLabel sets the free-text label on a journey.
func (c *Client) UpdateJourneyLabel(ctx context.Context, journeyID int, label string) (*JourneyActionResponse, error) {
	var resp JourneyActionResponse
	body := map[string]string{"label": label}
	path := fmt.Sprintf("/journey/%d/label", journeyID)
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostcodeFromCoordinates reverse-geocodes a coordinate pair to a postcode.
// Results are memoized briefly keyed by the rounded coordinates.
func (c *Client) PostcodeFromCoordinates(ctx context.Context, latitude, longitude float64) (string, error) {
	memoKey := fmt.Sprintf("%.4f,%.4f", latitude, longitude)
	if cached, ok := c.geocodeMemo.Get(memoKey); ok {
		return cached.(string), nil
	}

	var resp PostcodeResponse
	body := map[string]float64{"latitude": latitude, "longitude": longitude}
	if err := c.do(ctx, http.MethodPost, "/postcode/from-coordinates", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Postcode == "" {
		if resp.Message != "" {
			return "", &Error{Kind: KindServer, Message: resp.Message}
		}
		return "", &Error{Kind: KindInvalidResponse}
	}

	c.geocodeMemo.SetDefault(memoKey, resp.Postcode)
	return resp.Postcode, nil
}

// PostcodeDistance returns the distance between two postcodes.
func (c *Client) PostcodeDistance(ctx context.Context, postcode1, postcode2 string) (*DistanceResponse, error) {
	var resp DistanceResponse
	body := map[string]string{"postcode1": postcode1, "postcode2": postcode2}
	if err := c.do(ctx, http.MethodPost, "/postcodes/distance", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
