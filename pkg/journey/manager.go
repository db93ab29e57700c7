// Package journey contains the journey lifecycle manager: it orchestrates
// starting, ending and querying journeys, reconciles server state with the
// local cache, retries transient failures on start, and publishes state
// snapshots to subscribers.
package journey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pctrack/pkg/api"
	"pctrack/pkg/cache"
	"pctrack/pkg/config"
	"pctrack/pkg/location"
	"pctrack/pkg/postcode"
)

// State is an observable snapshot of the manager.
type State struct {
	CurrentJourney *api.Journey
	IsTracking     bool
	Journeys       []api.Journey
	IsLoading      bool
	ErrorMessage   string
}

// AuthState is the slice of the authentication holder the manager needs.
// Logout is invoked when the server rejects the token, so the dead session
// is not restored on the next run.
type AuthState interface {
	IsAuthenticated() bool
	Logout() error
}

// Locator is the slice of the location provider the manager needs.
type Locator interface {
	CurrentLocation(ctx context.Context) (location.Coordinate, error)
}

// Manager owns all mutable journey state. Public operations are safe from
// any goroutine; network and location calls happen outside the lock.
type Manager struct {
	api     *api.Client
	locator Locator
	store   *cache.Store
	state   *config.StateStore
	auth    AuthState
	retry   RetryPolicy

	// settleDelay is the brief wait after re-reading the token during an
	// authentication refresh.
	settleDelay time.Duration

	mu             sync.Mutex
	current        *api.Journey
	isTracking     bool
	journeys       []api.Journey
	isLoading      bool
	errorMessage   string
	checkingActive bool
	refreshingAuth bool
	subscribers    []func(State)
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetryPolicy overrides the start-journey retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(m *Manager) { m.retry = p }
}

// WithSettleDelay overrides the token propagation wait, mainly for tests.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) { m.settleDelay = d }
}

// NewManager wires the manager to its collaborators.
func NewManager(client *api.Client, locator Locator, store *cache.Store, state *config.StateStore, auth AuthState, opts ...Option) *Manager {
	m := &Manager{
		api:         client,
		locator:     locator,
		store:       store,
		state:       state,
		auth:        auth,
		retry:       StartJourneyPolicy(),
		settleDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a callback invoked with a snapshot after every state
// change. Callbacks run on the mutating goroutine and must not call back
// into the manager.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// snapshotLocked builds a State copy; callers hold the lock. The current
// journey is copied so later label edits cannot reach published snapshots.
func (m *Manager) snapshotLocked() State {
	journeys := make([]api.Journey, len(m.journeys))
	copy(journeys, m.journeys)
	var current *api.Journey
	if m.current != nil {
		c := *m.current
		current = &c
	}
	return State{
		CurrentJourney: current,
		IsTracking:     m.isTracking,
		Journeys:       journeys,
		IsLoading:      m.isLoading,
		ErrorMessage:   m.errorMessage,
	}
}

func (m *Manager) publishLocked() {
	snap := m.snapshotLocked()
	for _, fn := range m.subscribers {
		fn(snap)
	}
}

// Snapshot returns the current observable state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) beginOperation() {
	m.mu.Lock()
	m.isLoading = true
	m.errorMessage = ""
	m.publishLocked()
	m.mu.Unlock()
}

func (m *Manager) endOperation() {
	m.mu.Lock()
	m.isLoading = false
	m.publishLocked()
	m.mu.Unlock()
}

func (m *Manager) setError(message string) {
	m.mu.Lock()
	m.errorMessage = message
	m.publishLocked()
	m.mu.Unlock()
}

// handleError translates API and location failures into the one
// human-readable string each that the presentation layer shows.
func handleError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if msg := location.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

// errNotAuthenticated is the local failure for operations attempted while
// logged out; no network call is made.
var errNotAuthenticated = &api.Error{Kind: api.KindUnauthorized}

// persistSnapshotLocked mirrors the current journey into the durable state
// store so a restart can restore tracking before the server is reachable.
func (m *Manager) persistSnapshotLocked() {
	if m.current == nil {
		return
	}
	_ = m.state.Set(config.KeyCurrentJourney, m.current)
	_ = m.state.Set(config.KeyIsTracking, m.isTracking)
}

func (m *Manager) clearSnapshotLocked() {
	_ = m.state.Delete(config.KeyCurrentJourney, config.KeyIsTracking, config.KeyLegacyActiveJourney)
}

// StartJourney acquires the current location and begins a tracked journey.
// Transport failures are retried per the start policy; authorization
// failures and the server's active-journey conflict propagate immediately.
func (m *Manager) StartJourney(ctx context.Context) error {
	if !m.auth.IsAuthenticated() {
		m.setError("Please log in to start a journey.")
		return errNotAuthenticated
	}
	if m.HasActiveJourney() {
		m.setError("You already have an active journey in progress")
		return fmt.Errorf("journey already in progress")
	}

	m.beginOperation()
	defer m.endOperation()

	coord, err := m.locator.CurrentLocation(ctx)
	if err != nil {
		m.setError(handleError(err))
		return err
	}

	var resp *api.JourneyActionResponse
	err = m.retry.Do(ctx, func() error {
		var callErr error
		resp, callErr = m.api.StartJourney(ctx, coord.Latitude, coord.Longitude)
		return callErr
	})
	if err != nil {
		m.setError(handleError(err))
		return err
	}

	if !resp.Success || resp.Journey == nil {
		message := resp.Message
		if message == "" {
			message = "Failed to start journey"
		}
		m.setError(message)
		return &api.Error{Kind: api.KindServer, Message: message}
	}

	m.mu.Lock()
	m.current = resp.Journey
	m.isTracking = true
	m.persistSnapshotLocked()
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.PutJourney(cache.RecordFromJourney(*resp.Journey)); err != nil {
		return fmt.Errorf("journey started but cache write failed: %w", err)
	}
	return nil
}

// EndJourney completes the active journey at the current location. The
// completed journey replaces its entry in the list, or is prepended when
// the list has not been loaded yet.
func (m *Manager) EndJourney(ctx context.Context) error {
	m.mu.Lock()
	hasCurrent := m.current != nil
	m.mu.Unlock()
	if !hasCurrent {
		m.setError("No active journey found")
		return fmt.Errorf("no active journey")
	}
	if !m.auth.IsAuthenticated() {
		m.setError("Please log in to end a journey.")
		return errNotAuthenticated
	}

	m.beginOperation()
	defer m.endOperation()

	coord, err := m.locator.CurrentLocation(ctx)
	if err != nil {
		m.setError(handleError(err))
		return err
	}

	resp, err := m.api.EndJourney(ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		m.setError(handleError(err))
		return err
	}
	if !resp.Success || resp.Journey == nil {
		message := resp.Message
		if message == "" {
			message = "Failed to end journey"
		}
		m.setError(message)
		return &api.Error{Kind: api.KindServer, Message: message}
	}

	completed := *resp.Journey

	m.mu.Lock()
	replaced := false
	for i := range m.journeys {
		if m.journeys[i].ID == completed.ID {
			m.journeys[i] = completed
			replaced = true
			break
		}
	}
	if !replaced {
		m.journeys = append([]api.Journey{completed}, m.journeys...)
	}
	m.current = nil
	m.isTracking = false
	m.clearSnapshotLocked()
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.PutJourney(cache.RecordFromJourney(completed)); err != nil {
		return fmt.Errorf("journey ended but cache write failed: %w", err)
	}
	return nil
}

// CheckActiveJourney probes the server for an in-progress journey and
// adopts or clears the tracked state accordingly. The token is validated
// first; an authorization failure clears all local journey state, logs the
// session out and purges the journey cache. Other
// network failures leave existing state untouched so transient connectivity
// loss does not wipe a live journey. Concurrent calls collapse: while one
// probe is in flight, further calls return immediately.
func (m *Manager) CheckActiveJourney(ctx context.Context) error {
	m.mu.Lock()
	if m.checkingActive {
		m.mu.Unlock()
		return nil
	}
	m.checkingActive = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.checkingActive = false
		m.mu.Unlock()
	}()

	if err := m.api.ValidateToken(ctx); err != nil {
		if api.IsUnauthorized(err) {
			m.mu.Lock()
			m.current = nil
			m.isTracking = false
			m.journeys = nil
			m.clearSnapshotLocked()
			m.errorMessage = handleError(err)
			m.publishLocked()
			m.mu.Unlock()

			// The token is dead: force a local logout and purge the
			// invalidated session's cached journeys.
			if logoutErr := m.auth.Logout(); logoutErr != nil {
				return logoutErr
			}
			if purgeErr := m.store.DeleteAllJourneys(); purgeErr != nil {
				return purgeErr
			}
			return err
		}
		m.setError(handleError(err))
		return err
	}

	resp, err := m.api.GetActiveJourney(ctx)
	if err != nil {
		m.setError(handleError(err))
		return err
	}

	m.mu.Lock()
	if resp.Success && resp.Active && resp.Journey != nil {
		m.current = resp.Journey
		m.isTracking = true
		m.persistSnapshotLocked()
	} else {
		m.current = nil
		m.isTracking = false
		m.clearSnapshotLocked()
	}
	m.publishLocked()
	m.mu.Unlock()

	if resp.Success && resp.Active && resp.Journey != nil {
		if err := m.store.PutJourney(cache.RecordFromJourney(*resp.Journey)); err != nil {
			return fmt.Errorf("active journey adopted but cache write failed: %w", err)
		}
	}
	return nil
}

// LoadJourneys populates the journey list. Unauthenticated sessions read
// the local cache only. Authenticated fetches replace the list and write
// through to the cache; on failure the cache serves as the fallback and the
// error surfaces as a message.
func (m *Manager) LoadJourneys(ctx context.Context) error {
	m.beginOperation()
	defer m.endOperation()

	if !m.auth.IsAuthenticated() {
		m.loadFromCache()
		return nil
	}

	journeys, err := m.api.GetJourneys(ctx)
	if err != nil {
		m.setError(handleError(err))
		m.loadFromCache()
		return err
	}

	m.mu.Lock()
	m.journeys = journeys
	m.publishLocked()
	m.mu.Unlock()

	records := make([]cache.JourneyRecord, 0, len(journeys))
	for _, j := range journeys {
		records = append(records, cache.RecordFromJourney(j))
	}
	if err := m.store.ReplaceJourneys(records); err != nil {
		return fmt.Errorf("journeys loaded but cache write failed: %w", err)
	}
	return nil
}

// RefreshJourneys is an alias for LoadJourneys kept for call sites that
// express intent.
func (m *Manager) RefreshJourneys(ctx context.Context) error {
	return m.LoadJourneys(ctx)
}

// loadFromCache fills the journey list from the local mirror. A missing or
// empty cache yields an empty list, never an error.
func (m *Manager) loadFromCache() {
	records, err := m.store.Journeys()
	if err != nil {
		return
	}
	journeys := make([]api.Journey, 0, len(records))
	for _, r := range records {
		journeys = append(journeys, r.Journey())
	}

	m.mu.Lock()
	m.journeys = journeys
	m.publishLocked()
	m.mu.Unlock()
}

// UpdateJourneyLabel sets the label on a journey, updating the list entry
// and the tracked journey when they match.
func (m *Manager) UpdateJourneyLabel(ctx context.Context, journeyID int, label string) error {
	if !m.auth.IsAuthenticated() {
		m.setError("Please log in to edit journeys.")
		return errNotAuthenticated
	}

	m.beginOperation()
	defer m.endOperation()

	resp, err := m.api.UpdateJourneyLabel(ctx, journeyID, label)
	if err != nil {
		m.setError(handleError(err))
		return err
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = "Failed to update label"
		}
		m.setError(message)
		return &api.Error{Kind: api.KindServer, Message: message}
	}

	updated := resp.Journey
	m.mu.Lock()
	for i := range m.journeys {
		if m.journeys[i].ID == journeyID {
			if updated != nil {
				m.journeys[i] = *updated
			} else {
				m.journeys[i].Label = &label
			}
			break
		}
	}
	if m.current != nil && m.current.ID == journeyID {
		if updated != nil {
			m.current = updated
		} else {
			cur := *m.current
			labelCopy := label
			cur.Label = &labelCopy
			m.current = &cur
		}
	}
	m.publishLocked()
	m.mu.Unlock()
	return nil
}

// CreateManualJourney records a journey between two postcodes without any
// location acquisition. The new journey is prepended to the list. Failures
// surface as a message and propagate as a typed error.
func (m *Manager) CreateManualJourney(ctx context.Context, startPostcode, endPostcode string) (*api.Journey, error) {
	if !m.auth.IsAuthenticated() {
		m.setError("Please log in to create a journey.")
		return nil, errNotAuthenticated
	}

	start := postcode.Format(startPostcode)
	end := postcode.Format(endPostcode)
	if !postcode.IsValid(start) || !postcode.IsValid(end) {
		m.setError("Invalid UK postcode format")
		return nil, fmt.Errorf("invalid UK postcode")
	}

	m.beginOperation()
	defer m.endOperation()

	resp, err := m.api.CreateManualJourney(ctx, start, end)
	if err != nil {
		m.setError(handleError(err))
		return nil, err
	}
	if !resp.Success || resp.Journey == nil {
		message := resp.Message
		if message == "" {
			message = "Failed to create journey"
		}
		m.setError(message)
		return nil, &api.Error{Kind: api.KindServer, Message: message}
	}

	created := *resp.Journey
	m.mu.Lock()
	m.journeys = append([]api.Journey{created}, m.journeys...)
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.PutJourney(cache.RecordFromJourney(created)); err != nil {
		return &created, fmt.Errorf("journey created but cache write failed: %w", err)
	}
	return &created, nil
}

// DeleteJourneys removes journeys from the list and the local cache. The
// server exposes no delete contract, so this is local-only.
func (m *Manager) DeleteJourneys(ids []int) error {
	idSet := make(map[int]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	m.mu.Lock()
	kept := m.journeys[:0]
	for _, j := range m.journeys {
		if !idSet[j.ID] {
			kept = append(kept, j)
		}
	}
	m.journeys = kept
	m.publishLocked()
	m.mu.Unlock()

	return m.store.DeleteJourneys(ids)
}

// ClearError clears the surfaced error message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.errorMessage = ""
	m.publishLocked()
	m.mu.Unlock()
}

// HasActiveJourney reports whether a journey is being tracked.
func (m *Manager) HasActiveJourney() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.isTracking
}

// RefreshAuthenticationState re-reads the token from durable storage into
// the API client and reconciles journey state with the new session: an
// authenticated session re-checks for an active journey, an unauthenticated
// one wipes all in-memory and cached journey state so one user's data never
// leaks into the next session. Concurrent calls collapse into one.
func (m *Manager) RefreshAuthenticationState(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshingAuth {
		m.mu.Unlock()
		return nil
	}
	m.refreshingAuth = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.refreshingAuth = false
		m.mu.Unlock()
	}()

	token, _ := m.state.GetString(config.KeyAuthToken)
	m.api.SetAuthToken(token)

	// Give other components reading the token a moment to observe it.
	time.Sleep(m.settleDelay)

	if token != "" {
		return m.CheckActiveJourney(ctx)
	}

	m.mu.Lock()
	m.current = nil
	m.isTracking = false
	m.journeys = nil
	m.errorMessage = ""
	m.clearSnapshotLocked()
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.DeleteAllJourneys(); err != nil {
		return fmt.Errorf("failed to purge journey cache: %w", err)
	}
	return nil
}

// RestoreSnapshot re-reads the persisted current-journey snapshot, used at
// startup before the server has been consulted.
func (m *Manager) RestoreSnapshot() {
	var saved api.Journey
	if !m.state.Get(config.KeyCurrentJourney, &saved) {
		return
	}

	m.mu.Lock()
	m.current = &saved
	m.isTracking = m.state.GetBool(config.KeyIsTracking)
	m.publishLocked()
	m.mu.Unlock()
}
