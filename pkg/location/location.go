// Package location provides single-shot coordinate acquisition with
// permission-state handling and a bounded wait. A terminal client has no
// positioning hardware of its own, so raw coordinates come from a pluggable
// Source: fixed home coordinates or an HTTP lookup endpoint.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location failure taxonomy, independent of the API error taxonomy.
var (
	ErrDenied      = errors.New("location access denied")
	ErrRestricted  = errors.New("location services are restricted")
	ErrUnavailable = errors.New("location services are not available")
	ErrTimeout     = errors.New("location request timed out")
)

// UserMessage maps a location error to the string shown to the user,
// or "" when err is not a location error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrDenied):
		return "Location access denied. Please configure a location source."
	case errors.Is(err, ErrRestricted):
		return "Location services are restricted."
	case errors.Is(err, ErrUnavailable):
		return "Location services are not available."
	case errors.Is(err, ErrTimeout):
		return "Location request timed out."
	}
	var unknown *UnknownError
	if errors.As(err, &unknown) {
		return fmt.Sprintf("Location error: %v", unknown.Err)
	}
	return ""
}

// UnknownError wraps a source failure outside the taxonomy.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string { return fmt.Sprintf("location error: %v", e.Err) }
func (e *UnknownError) Unwrap() error { return e.Err }

// Permission mirrors the platform authorization states.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
	PermissionRestricted
)

// Source supplies raw coordinates.
type Source interface {
	// Available reports whether the source can currently serve lookups.
	Available() bool
	// Lookup blocks until a coordinate is obtained or ctx is done.
	Lookup(ctx context.Context) (Coordinate, error)
}

// DefaultTimeout bounds a single acquisition.
const DefaultTimeout = 15 * time.Second

// Provider wraps a Source with permission handling and a timeout race.
// Exactly one of coordinate, timeout, denial or source error resolves each
// request; the Provider never retries internally.
type Provider struct {
	source  Source
	timeout time.Duration

	mu         sync.Mutex
	permission Permission
	request    func() Permission
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout overrides the acquisition timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithPermission sets the initial permission state.
func WithPermission(perm Permission) Option {
	return func(p *Provider) { p.permission = perm }
}

// WithPermissionRequest installs the prompt invoked when the state is
// undetermined. Without one, undetermined resolves to denied.
func WithPermissionRequest(request func() Permission) Option {
	return func(p *Provider) { p.request = request }
}

// NewProvider builds a Provider over the given source. Permission defaults
// to granted: a CLI user configuring a location source is consenting to it.
func NewProvider(source Source, opts ...Option) *Provider {
	p := &Provider{
		source:     source,
		timeout:    DefaultTimeout,
		permission: PermissionGranted,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Permission returns the current permission state.
func (p *Provider) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *Provider) checkPermission() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permission == PermissionUndetermined {
		if p.request == nil {
			p.permission = PermissionDenied
		} else {
			p.permission = p.request()
		}
	}

	switch p.permission {
	case PermissionGranted:
		return nil
	case PermissionRestricted:
		return ErrRestricted
	default:
		return ErrDenied
	}
}

// CurrentLocation acquires the current position once.
func (p *Provider) CurrentLocation(ctx context.Context) (Coordinate, error) {
	if p.source == nil || !p.source.Available() {
		return Coordinate{}, ErrUnavailable
	}
	if err := p.checkPermission(); err != nil {
		return Coordinate{}, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		coord Coordinate
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		coord, err := p.source.Lookup(lookupCtx)
		ch <- result{coord, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return Coordinate{}, ErrTimeout
			}
			return Coordinate{}, &UnknownError{Err: res.err}
		}
		return res.coord, nil
	case <-lookupCtx.Done():
		if ctx.Err() != nil {
			return Coordinate{}, &UnknownError{Err: ctx.Err()}
		}
		return Coordinate{}, ErrTimeout
	}
}

// FixedSource serves a configured coordinate, typically the user's home.
type FixedSource struct {
	Coordinate Coordinate
}

func (s *FixedSource) Available() bool { return true }

func (s *FixedSource) Lookup(ctx context.Context) (Coordinate, error) {
	return s.Coordinate, nil
}

// HTTPSource queries a JSON endpoint returning {"latitude": .., "longitude": ..},
// for setups that bridge a phone or GPS receiver over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Available() bool { return s.URL != "" }

func (s *HTTPSource) Lookup(ctx context.Context) (Coordinate, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("failed to build location request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Coordinate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, fmt.Errorf("location endpoint returned status %d", resp.StatusCode)
	}

	var coord Coordinate
	if err := json.NewDecoder(resp.Body).Decode(&coord); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode location response: %w", err)
	}
	return coord, nil
}
