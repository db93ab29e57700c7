package cmd

import (
	"fmt"
	"path/filepath"

	"pctrack/pkg/api"
	"pctrack/pkg/auth"
	"pctrack/pkg/cache"
	"pctrack/pkg/config"
	"pctrack/pkg/journey"
	"pctrack/pkg/location"
	"pctrack/pkg/postcode"
	"pctrack/pkg/tui"
)

// buildApp wires every component from the on-disk configuration: the API
// client, durable state, the local cache, the location provider and the
// journey manager. Any persisted journey snapshot is restored so tracking
// state survives restarts even before the server is reachable.
func buildApp() (*tui.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}

	state, err := config.OpenState(filepath.Join(dataDir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("could not open state store: %w", err)
	}

	store, err := cache.Open(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("could not open journey cache: %w", err)
	}

	client := api.NewClient(cfg.ServerURL())
	authManager := auth.NewManager(state, client)
	provider := location.NewProvider(locationSource(cfg))

	journeyManager := journey.NewManager(client, provider, store, state, authManager)
	journeyManager.RestoreSnapshot()

	return &tui.App{
		Config:    cfg,
		API:       client,
		Auth:      authManager,
		Journeys:  journeyManager,
		Location:  provider,
		Postcodes: postcode.NewManager(store),
	}, nil
}

// locationSource picks the configured source: a live HTTP bridge when one is
// set, otherwise the fixed home coordinates. With neither configured the
// source reports unavailable and journey starts fail with a clear message.
func locationSource(cfg *config.AppConfig) location.Source {
	if cfg.LocationURL != "" {
		return &location.HTTPSource{URL: cfg.LocationURL}
	}
	if cfg.HasHomeLocation() {
		return &location.FixedSource{Coordinate: location.Coordinate{
			Latitude:  cfg.HomeLatitude,
			Longitude: cfg.HomeLongitude,
		}}
	}
	return &location.HTTPSource{}
}
