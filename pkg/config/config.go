package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBaseURL is used when the config file does not name a server.
const DefaultBaseURL = "https://rickys.ddns.net/LocationApp/api"

// AppConfig holds all user-defined persistent settings
type AppConfig struct {
	BaseURL       string  `json:"base_url,omitempty"`
	HomeLatitude  float64 `json:"home_latitude,omitempty"`
	HomeLongitude float64 `json:"home_longitude,omitempty"`
	LocationURL   string  `json:"location_url,omitempty"`
	AccentColor   string  `json:"accent_color,omitempty"`
}

// ServerURL returns the configured API base address, falling back to the default.
func (c *AppConfig) ServerURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// HasHomeLocation reports whether fixed home coordinates have been configured.
func (c *AppConfig) HasHomeLocation() bool {
	return c.HomeLatitude != 0 || c.HomeLongitude != 0
}

// getConfigPath returns the absolute path to ~/.pctrack.json
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pctrack.json"), nil
}

// DataDir returns the directory holding the local cache database and the
// durable state file, creating it if needed.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".pctrack")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return dir, nil
}

// Load reads the application configuration from disk.
// Returns an empty struct if the file does not exist.
func Load() (*AppConfig, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just return an empty default configuration
		if os.IsNotExist(err) {
			return &AppConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Save writes the application configuration back to disk.
func Save(cfg *AppConfig) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
