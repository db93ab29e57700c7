package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Durable state keys. The legacy keys belong to a superseded journey-state
// format and are only ever cleared, never written.
const (
	KeyAuthToken           = "auth_token"
	KeyCurrentJourney      = "current_journey"
	KeyIsTracking          = "is_tracking_journey"
	KeyLegacyActiveJourney = "activeJourney"
	KeyLegacyCurrentUser   = "current_user"
	KeyLegacyAuthenticated = "is_authenticated"
)

// AllStateKeys lists every key that must be gone after a logout.
var AllStateKeys = []string{
	KeyAuthToken,
	KeyCurrentJourney,
	KeyIsTracking,
	KeyLegacyActiveJourney,
	KeyLegacyCurrentUser,
	KeyLegacyAuthenticated,
}

// StateStore is a small keyed JSON store backing the client's durable local
// state: the bearer token, the current-journey snapshot and the tracking
// flag. It replaces the platform preference store of a mobile client.
type StateStore struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// OpenState loads the state file at path, tolerating a missing file.
func OpenState(path string) (*StateStore, error) {
	s := &StateStore{path: path, values: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return s, nil
}

func (s *StateStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Set stores v under key and persists immediately.
func (s *StateStore) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize state value %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return s.flushLocked()
}

// Get decodes the value stored under key into v, reporting whether the key
// was present and decodable.
func (s *StateStore) Get(key string, v any) bool {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// GetString is a convenience for string-valued keys.
func (s *StateStore) GetString(key string) (string, bool) {
	var v string
	ok := s.Get(key, &v)
	return v, ok
}

// GetBool is a convenience for flag-valued keys. Missing keys read as false.
func (s *StateStore) GetBool(key string) bool {
	var v bool
	s.Get(key, &v)
	return v
}

// Has reports whether key is present.
func (s *StateStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// Delete removes the given keys and persists. After logout the caller is
// expected to verify removal by re-reading each key; Delete itself returns
// an error if any key survived the flush.
func (s *StateStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	for _, key := range keys {
		if _, ok := s.values[key]; ok {
			return fmt.Errorf("state key %q not cleared", key)
		}
	}
	return nil
}
