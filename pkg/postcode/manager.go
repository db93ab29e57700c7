package postcode

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pctrack/pkg/cache"
)

// ErrInvalidPostcode rejects inputs that do not look like a UK postcode.
var ErrInvalidPostcode = errors.New("invalid UK postcode format")

// ErrDuplicatePostcode rejects a postcode that is already saved.
var ErrDuplicatePostcode = errors.New("postcode already exists")

// Saved is a postcode shortcut the user keeps for manual journeys.
type Saved struct {
	ID       string
	Postcode string
	Label    string
	AddedAt  time.Time
}

func savedFromRecord(r cache.PostcodeRecord) Saved {
	return Saved{ID: r.ID, Postcode: r.Postcode, Label: r.Label, AddedAt: r.CreatedAt}
}

// Manager owns the saved-postcode collection, backed by the local store.
type Manager struct {
	store *cache.Store
}

// NewManager wires the manager to its store.
func NewManager(store *cache.Store) *Manager {
	return &Manager{store: store}
}

// List returns saved postcodes, newest first.
func (m *Manager) List() ([]Saved, error) {
	records, err := m.store.Postcodes()
	if err != nil {
		return nil, fmt.Errorf("failed to load postcodes: %w", err)
	}
	saved := make([]Saved, 0, len(records))
	for _, r := range records {
		saved = append(saved, savedFromRecord(r))
	}
	return saved, nil
}

// Add validates and saves a new postcode shortcut. The postcode is
// canonicalized before storage and duplicates are rejected.
func (m *Manager) Add(rawPostcode, label string) (*Saved, error) {
	formatted := Format(rawPostcode)
	if !IsValid(formatted) {
		return nil, ErrInvalidPostcode
	}

	existing, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, s := range existing {
		if s.Postcode == formatted {
			return nil, ErrDuplicatePostcode
		}
	}

	record := cache.PostcodeRecord{
		ID:        uuid.NewString(),
		Postcode:  formatted,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.PutPostcode(record); err != nil {
		return nil, fmt.Errorf("failed to save postcode: %w", err)
	}
	saved := savedFromRecord(record)
	return &saved, nil
}

// Rename changes the label of a saved postcode.
func (m *Manager) Rename(id, newLabel string) error {
	records, err := m.store.Postcodes()
	if err != nil {
		return fmt.Errorf("failed to load postcodes: %w", err)
	}
	for _, r := range records {
		if r.ID == id {
			r.Label = newLabel
			if err := m.store.PutPostcode(r); err != nil {
				return fmt.Errorf("failed to update postcode: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("postcode %s not found", id)
}

// Delete removes the saved postcodes with the given ids.
func (m *Manager) Delete(ids ...string) error {
	if err := m.store.DeletePostcodes(ids); err != nil {
		return fmt.Errorf("failed to delete postcodes: %w", err)
	}
	return nil
}

// DeleteAll removes every saved postcode.
func (m *Manager) DeleteAll() error {
	if err := m.store.DeleteAllPostcodes(); err != nil {
		return fmt.Errorf("failed to delete all postcodes: %w", err)
	}
	return nil
}

// HasPostcodes reports whether any shortcuts are saved.
func (m *Manager) HasPostcodes() bool {
	saved, err := m.List()
	return err == nil && len(saved) > 0
}
