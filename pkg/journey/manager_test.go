package journey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pctrack/pkg/api"
	"pctrack/pkg/auth"
	"pctrack/pkg/cache"
	"pctrack/pkg/config"
	"pctrack/pkg/location"
)

type fakeAuth struct{ authed bool }

func (f *fakeAuth) IsAuthenticated() bool { return f.authed }

func (f *fakeAuth) Logout() error {
	f.authed = false
	return nil
}

type fakeLocator struct {
	coord location.Coordinate
	err   error
}

func (f *fakeLocator) CurrentLocation(ctx context.Context) (location.Coordinate, error) {
	if f.err != nil {
		return location.Coordinate{}, f.err
	}
	return f.coord, nil
}

type fixture struct {
	manager *Manager
	store   *cache.Store
	state   *config.StateStore
	auth    *fakeAuth
	locator *fakeLocator
}

func newFixture(t *testing.T, serverURL string) *fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	state, err := config.OpenState(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	authState := &fakeAuth{authed: true}
	locator := &fakeLocator{coord: location.Coordinate{Latitude: 51.5, Longitude: -0.1}}

	manager := NewManager(
		api.NewClient(serverURL),
		locator,
		store,
		state,
		authState,
		WithRetryPolicy(fastStartPolicy()),
		WithSettleDelay(0),
	)

	return &fixture{manager: manager, store: store, state: state, auth: authState, locator: locator}
}

func TestManager_StartJourneySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/journey/start", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"journey": {
				"id": 7,
				"start_postcode": "SW1A 1AA",
				"start_time": "2026-09-01T08:30:00Z",
				"is_active": true
			}
		}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.StartJourney(context.Background()))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.CurrentJourney)
	assert.Equal(t, 7, snap.CurrentJourney.ID)
	assert.True(t, snap.IsTracking)

	// Invariant: active iff no end time
	_, hasEnd := snap.CurrentJourney.EndedAt()
	assert.Equal(t, snap.CurrentJourney.IsActive, !hasEnd)

	// Write-through: the cache holds the started journey
	cached, err := f.store.Journey(7)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.IsActive)

	// Durable snapshot persisted
	assert.True(t, f.state.Has(config.KeyCurrentJourney))
	assert.True(t, f.state.GetBool(config.KeyIsTracking))
}

func TestManager_StartJourneyUnauthenticatedMakesNoCall(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	f.auth.authed = false

	err := f.manager.StartJourney(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Zero(t, hits, "no network call may be made while logged out")
	assert.NotEmpty(t, f.manager.Snapshot().ErrorMessage)
}

func TestManager_StartJourneyWhileTrackingMakesNoCall(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"success": true, "journey": {"id": 1, "start_postcode": "N1 9GU", "start_time": "2026-09-01T08:00:00Z", "is_active": true}}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.StartJourney(context.Background()))
	require.Equal(t, 1, hits)

	err := f.manager.StartJourney(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, hits, "a second start while tracking must stay local")
	assert.Contains(t, f.manager.Snapshot().ErrorMessage, "already have an active journey")
}

func TestManager_StartJourneyRetriesTransportErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		// Drop the connection so the client sees a transport error
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	err := f.manager.StartJourney(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "1 initial + 2 retries")
	assert.NotEmpty(t, f.manager.Snapshot().ErrorMessage)
}

func TestManager_StartJourneyConflictPropagatesWithoutRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "message": "You already have an active journey in progress"}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	err := f.manager.StartJourney(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "You already have an active journey in progress", f.manager.Snapshot().ErrorMessage)
}

func TestManager_StartJourneyLocationFailure(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	f.locator.err = location.ErrTimeout

	err := f.manager.StartJourney(context.Background())
	require.Error(t, err)
	assert.Zero(t, hits, "location failure precedes any network call")
	assert.Equal(t, "Location request timed out.", f.manager.Snapshot().ErrorMessage)
}

func TestManager_EndJourneyReplacesAndClears(t *testing.T) {
	endBody := `{
		"success": true,
		"journey": {
			"id": 7,
			"start_postcode": "SW1A 1AA",
			"end_postcode": "EC1A 1BB",
			"start_time": "2026-09-01T08:30:00Z",
			"end_time": "2026-09-01T09:00:00Z",
			"distance_miles": 2.4,
			"is_active": false
		}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/journey/start":
			w.Write([]byte(`{"success": true, "journey": {"id": 7, "start_postcode": "SW1A 1AA", "start_time": "2026-09-01T08:30:00Z", "is_active": true}}`))
		case "/journey/end":
			w.Write([]byte(endBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.StartJourney(context.Background()))
	require.NoError(t, f.manager.EndJourney(context.Background()))

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.CurrentJourney)
	assert.False(t, snap.IsTracking)
	require.Len(t, snap.Journeys, 1)
	assert.Equal(t, 7, snap.Journeys[0].ID)
	assert.False(t, snap.Journeys[0].IsActive)

	// Invariant holds after the lifecycle completes
	_, hasEnd := snap.Journeys[0].EndedAt()
	assert.Equal(t, snap.Journeys[0].IsActive, !hasEnd)

	// Cache updated in place, snapshot keys cleared
	cached, err := f.store.Journey(7)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.False(t, cached.IsActive)
	assert.False(t, f.state.Has(config.KeyCurrentJourney))
	assert.False(t, f.state.Has(config.KeyIsTracking))
}

func TestManager_EndJourneyWithoutActiveFailsLocally(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	err := f.manager.EndJourney(context.Background())
	require.Error(t, err)
	assert.Zero(t, hits)
	assert.Equal(t, "No active journey found", f.manager.Snapshot().ErrorMessage)
}

func TestManager_CheckActiveJourneyAdopts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/validate":
			w.WriteHeader(http.StatusOK)
		case "/journey/active":
			w.Write([]byte(`{"success": true, "active": true, "journey": {"id": 3, "start_postcode": "N1 9GU", "start_time": "2026-09-01T07:00:00Z", "is_active": true}}`))
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.CheckActiveJourney(context.Background()))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.CurrentJourney)
	assert.Equal(t, 3, snap.CurrentJourney.ID)
	assert.True(t, snap.IsTracking)

	cached, err := f.store.Journey(3)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestManager_CheckActiveJourneyCollapsesConcurrentCalls(t *testing.T) {
	var mu sync.Mutex
	validateCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/validate":
			mu.Lock()
			validateCalls++
			mu.Unlock()
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case "/journey/active":
			w.Write([]byte(`{"success": true, "active": false}`))
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.manager.CheckActiveJourney(context.Background())
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, validateCalls, "the second concurrent call must be a no-op")
}

func TestManager_CheckActiveJourneyUnauthorizedClearsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/validate" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		t.Errorf("no call beyond validation expected, got %s", r.URL.Path)
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	seedTracking(t, f)

	err := f.manager.CheckActiveJourney(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.CurrentJourney)
	assert.False(t, snap.IsTracking)
	assert.Empty(t, snap.Journeys)
	assert.Equal(t, "Your session has expired. Please log in again.", snap.ErrorMessage)
	assert.False(t, f.auth.authed, "session should be logged out")
}

func TestManager_CheckActiveJourneyUnauthorizedForcesLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	dir := t.TempDir()
	state, err := config.OpenState(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.NoError(t, state.Set(config.KeyAuthToken, "tok-revoked"))
	store, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	require.NoError(t, store.PutJourney(cache.JourneyRecord{ID: 4, StartPostcode: "SW1A 1AA", StartTime: "2026-08-01T10:00:00Z"}))

	client := api.NewClient(server.URL)
	session := auth.NewManager(state, client)
	require.True(t, session.IsAuthenticated())

	manager := NewManager(client, &fakeLocator{}, store, state, session, WithSettleDelay(0))
	err = manager.CheckActiveJourney(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	// The revoked token must not come back on the next run
	assert.False(t, session.IsAuthenticated())
	assert.False(t, state.Has(config.KeyAuthToken))
	assert.Empty(t, client.AuthToken())

	records, err := store.Journeys()
	require.NoError(t, err)
	assert.Empty(t, records, "the invalidated session's cache should be purged")
}

func TestManager_CheckActiveJourneyNetworkFailureKeepsState(t *testing.T) {
	// Adopt a journey from a healthy server first
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/validate":
			w.WriteHeader(http.StatusOK)
		case "/journey/active":
			w.Write([]byte(`{"success": true, "active": true, "journey": {"id": 5, "start_postcode": "SE1 7PB", "start_time": "2026-09-01T07:00:00Z", "is_active": true}}`))
		}
	}))
	f := newFixture(t, healthy.URL)
	require.NoError(t, f.manager.CheckActiveJourney(context.Background()))
	healthy.Close()

	// Now the server is unreachable: state must survive, message must surface
	err := f.manager.CheckActiveJourney(context.Background())
	require.Error(t, err)
	assert.False(t, api.IsUnauthorized(err))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.CurrentJourney)
	assert.Equal(t, 5, snap.CurrentJourney.ID)
	assert.True(t, snap.IsTracking)
	assert.NotEmpty(t, snap.ErrorMessage)
}

func TestManager_LoadJourneysOfflineFallsBackToCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // offline

	f := newFixture(t, server.URL)
	for id := 1; id <= 3; id++ {
		require.NoError(t, f.store.PutJourney(cache.JourneyRecord{
			ID:            id,
			StartPostcode: "SW1A 1AA",
			StartTime:     "2026-08-01T10:00:00Z",
		}))
	}

	err := f.manager.LoadJourneys(context.Background())
	require.Error(t, err)

	snap := f.manager.Snapshot()
	assert.Len(t, snap.Journeys, 3, "cached journeys must be served offline")
	assert.NotEmpty(t, snap.ErrorMessage)
}

func TestManager_LoadJourneysUnauthenticatedReadsCacheOnly(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	f.auth.authed = false
	require.NoError(t, f.store.PutJourney(cache.JourneyRecord{ID: 9, StartPostcode: "N1 9GU", StartTime: "2026-08-01T10:00:00Z"}))

	require.NoError(t, f.manager.LoadJourneys(context.Background()))
	assert.Zero(t, hits)
	snap := f.manager.Snapshot()
	require.Len(t, snap.Journeys, 1)
	assert.Equal(t, 9, snap.Journeys[0].ID)
	assert.Empty(t, snap.ErrorMessage)
}

func TestManager_LoadJourneysWritesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/journeys", r.URL.Path)
		w.Write([]byte(`{"success": true, "journeys": [
			{"id": 1, "start_postcode": "SW1A 1AA", "start_time": "2026-08-01T10:00:00Z", "is_active": false},
			{"id": 2, "start_postcode": "EC1A 1BB", "start_time": "2026-08-02T10:00:00Z", "is_active": false}
		]}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	// A stale cache row that the refresh must displace
	require.NoError(t, f.store.PutJourney(cache.JourneyRecord{ID: 99, StartPostcode: "OLD", StartTime: "2020-01-01T00:00:00Z"}))

	require.NoError(t, f.manager.LoadJourneys(context.Background()))

	records, err := f.store.Journeys()
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.NotEqual(t, 99, r.ID)
	}
}

func TestManager_CreateManualJourneyUnauthenticated(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	f.auth.authed = false

	_, err := f.manager.CreateManualJourney(context.Background(), "SW1A 1AA", "EC1A 1BB")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Zero(t, hits)
	assert.Empty(t, f.manager.Snapshot().Journeys, "journeys must be unchanged")
}

func TestManager_CreateManualJourneyPrependsAndCaches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/journey/manual", r.URL.Path)
		w.Write([]byte(`{"success": true, "journey": {
			"id": 11,
			"start_postcode": "SW1A 1AA",
			"end_postcode": "EC1A 1BB",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T10:00:00Z",
			"is_active": false,
			"is_manual": true
		}}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	created, err := f.manager.CreateManualJourney(context.Background(), "sw1a1aa", "ec1a1bb")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 11, created.ID)
	assert.True(t, created.IsManual)

	snap := f.manager.Snapshot()
	require.Len(t, snap.Journeys, 1)
	assert.Equal(t, 11, snap.Journeys[0].ID)

	cached, err := f.store.Journey(11)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.IsManual)
}

func TestManager_CreateManualJourneyRejectsInvalidPostcode(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	_, err := f.manager.CreateManualJourney(context.Background(), "INVALID", "EC1A 1BB")
	require.Error(t, err)
	assert.Zero(t, hits)
	assert.Equal(t, "Invalid UK postcode format", f.manager.Snapshot().ErrorMessage)
}

func TestManager_UpdateJourneyLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/journeys":
			w.Write([]byte(`{"success": true, "journeys": [{"id": 4, "start_postcode": "SW1A 1AA", "start_time": "2026-08-01T10:00:00Z", "is_active": false}]}`))
		case "/journey/4/label":
			require.Equal(t, http.MethodPut, r.Method)
			w.Write([]byte(`{"success": true, "journey": {"id": 4, "start_postcode": "SW1A 1AA", "start_time": "2026-08-01T10:00:00Z", "is_active": false, "label": "School run"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.LoadJourneys(context.Background()))
	require.NoError(t, f.manager.UpdateJourneyLabel(context.Background(), 4, "School run"))

	snap := f.manager.Snapshot()
	require.Len(t, snap.Journeys, 1)
	assert.Equal(t, "School run", snap.Journeys[0].LabelText())
}

func TestManager_UpdateJourneyLabelLeavesEarlierSnapshotsAlone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/journey/42/label", r.URL.Path)
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	seedTracking(t, f)

	before := f.manager.Snapshot()
	require.NotNil(t, before.CurrentJourney)
	require.Nil(t, before.CurrentJourney.Label)

	require.NoError(t, f.manager.UpdateJourneyLabel(context.Background(), 42, "School run"))

	// Snapshots taken before the edit keep the journey they were given
	assert.Nil(t, before.CurrentJourney.Label)

	after := f.manager.Snapshot()
	require.NotNil(t, after.CurrentJourney)
	require.NotNil(t, after.CurrentJourney.Label)
	assert.Equal(t, "School run", *after.CurrentJourney.Label)
}

func TestManager_DeleteJourneysIsLocalOnly(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/journeys" {
			w.Write([]byte(`{"success": true, "journeys": [
				{"id": 1, "start_postcode": "A1 1AA", "start_time": "2026-08-01T10:00:00Z", "is_active": false},
				{"id": 2, "start_postcode": "B2 2BB", "start_time": "2026-08-02T10:00:00Z", "is_active": false},
				{"id": 3, "start_postcode": "C3 3CC", "start_time": "2026-08-03T10:00:00Z", "is_active": false}
			]}`))
			return
		}
		hits++
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.LoadJourneys(context.Background()))

	require.NoError(t, f.manager.DeleteJourneys([]int{1, 3}))
	assert.Zero(t, hits, "delete has no server contract")

	snap := f.manager.Snapshot()
	require.Len(t, snap.Journeys, 1)
	assert.Equal(t, 2, snap.Journeys[0].ID)

	records, err := f.store.Journeys()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ID)
}

func TestManager_RefreshAuthWithoutTokenWipesEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/journeys" {
			w.Write([]byte(`{"success": true, "journeys": [{"id": 1, "start_postcode": "A1 1AA", "start_time": "2026-08-01T10:00:00Z", "is_active": false}]}`))
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.manager.LoadJourneys(context.Background()))
	seedTracking(t, f)
	require.NotEmpty(t, f.manager.Snapshot().Journeys)

	// No token in durable storage: a logout happened
	require.NoError(t, f.manager.RefreshAuthenticationState(context.Background()))

	snap := f.manager.Snapshot()
	assert.Empty(t, snap.Journeys)
	assert.Nil(t, snap.CurrentJourney)
	assert.False(t, snap.IsTracking)

	records, err := f.store.Journeys()
	require.NoError(t, err)
	assert.Empty(t, records, "the cache must be purged so the next user sees nothing")
	assert.Empty(t, f.manager.api.AuthToken())
}

func TestManager_RefreshAuthWithTokenChecksActiveJourney(t *testing.T) {
	activeCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/validate":
			w.WriteHeader(http.StatusOK)
		case "/journey/active":
			activeCalls++
			w.Write([]byte(`{"success": true, "active": false}`))
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL)
	require.NoError(t, f.state.Set(config.KeyAuthToken, "tok-restored"))

	require.NoError(t, f.manager.RefreshAuthenticationState(context.Background()))
	assert.Equal(t, 1, activeCalls)
	assert.Equal(t, "tok-restored", f.manager.api.AuthToken())
}

func TestManager_SubscribersObserveStateChanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "journey": {"id": 7, "start_postcode": "SW1A 1AA", "start_time": "2026-09-01T08:30:00Z", "is_active": true}}`))
	}))
	defer server.Close()

	f := newFixture(t, server.URL)

	var states []State
	f.manager.Subscribe(func(s State) { states = append(states, s) })

	require.NoError(t, f.manager.StartJourney(context.Background()))

	require.NotEmpty(t, states)
	var sawLoading, sawTracking bool
	for _, s := range states {
		if s.IsLoading {
			sawLoading = true
		}
		if s.IsTracking && s.CurrentJourney != nil {
			sawTracking = true
		}
	}
	assert.True(t, sawLoading, "subscribers should observe the loading phase")
	assert.True(t, sawTracking, "subscribers should observe the adopted journey")

	final := states[len(states)-1]
	assert.False(t, final.IsLoading)
}

// seedTracking puts the manager into a tracking state without the network.
func seedTracking(t *testing.T, f *fixture) {
	t.Helper()
	f.manager.mu.Lock()
	j := api.Journey{ID: 42, StartPostcode: "SW1A 1AA", StartTime: "2026-09-01T08:00:00Z", IsActive: true}
	f.manager.current = &j
	f.manager.isTracking = true
	f.manager.mu.Unlock()
}
