// Package cache is the on-device record store: a denormalized mirror of the
// user's journeys for offline display, plus the locally-owned saved
// postcodes. The server copy of journeys is authoritative whenever
// reachable; this store is a read fallback and a write-through mirror only.
package cache

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pctrack/pkg/api"
)

// JourneyRecord mirrors the subset of journey fields needed offline. No
// coordinates, no label.
type JourneyRecord struct {
	ID            int `gorm:"primaryKey"`
	StartPostcode string
	EndPostcode   *string
	StartTime     string
	EndTime       *string
	DistanceMiles *float64
	IsActive      bool
	IsManual      bool
}

// RecordFromJourney denormalizes a wire journey into its cached form.
func RecordFromJourney(j api.Journey) JourneyRecord {
	return JourneyRecord{
		ID:            j.ID,
		StartPostcode: j.StartPostcode,
		EndPostcode:   j.EndPostcode,
		StartTime:     j.StartTime,
		EndTime:       j.EndTime,
		DistanceMiles: j.DistanceMiles,
		IsActive:      j.IsActive,
		IsManual:      j.IsManual,
	}
}

// Journey re-inflates the record for display.
func (r JourneyRecord) Journey() api.Journey {
	return api.Journey{
		ID:            r.ID,
		StartPostcode: r.StartPostcode,
		EndPostcode:   r.EndPostcode,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		DistanceMiles: r.DistanceMiles,
		IsActive:      r.IsActive,
		IsManual:      r.IsManual,
	}
}

// PostcodeRecord is a user-curated postcode shortcut. Unlike journeys these
// are owned locally and never mirrored from the server.
type PostcodeRecord struct {
	ID        string `gorm:"primaryKey"`
	Postcode  string
	Label     string
	CreatedAt time.Time
}

// Store wraps the sqlite database file.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.AutoMigrate(&JourneyRecord{}, &PostcodeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Journeys returns every cached journey, most recent start first.
func (s *Store) Journeys() ([]JourneyRecord, error) {
	var records []JourneyRecord
	if err := s.db.Order("start_time DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read cached journeys: %w", err)
	}
	return records, nil
}

// Journey fetches one record by id, (nil, nil) when absent.
func (s *Store) Journey(id int) (*JourneyRecord, error) {
	var record JourneyRecord
	err := s.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached journey %d: %w", id, err)
	}
	return &record, nil
}

// PutJourney inserts or updates a record keyed by its id.
func (s *Store) PutJourney(record JourneyRecord) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to cache journey %d: %w", record.ID, err)
	}
	return nil
}

// ReplaceJourneys swaps the whole mirror for the server's current list.
func (s *Store) ReplaceJourneys(records []JourneyRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&JourneyRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// DeleteJourneys removes the given ids.
func (s *Store) DeleteJourneys(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.Delete(&JourneyRecord{}, ids).Error; err != nil {
		return fmt.Errorf("failed to delete cached journeys: %w", err)
	}
	return nil
}

// DeleteAllJourneys wipes the journey mirror, used on logout so one user's
// data cannot leak into the next session.
func (s *Store) DeleteAllJourneys() error {
	if err := s.db.Where("1 = 1").Delete(&JourneyRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear journey cache: %w", err)
	}
	return nil
}

// Postcodes returns the saved postcodes, newest first.
func (s *Store) Postcodes() ([]PostcodeRecord, error) {
	var records []PostcodeRecord
	if err := s.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read saved postcodes: %w", err)
	}
	return records, nil
}

// PutPostcode inserts or updates a saved postcode.
func (s *Store) PutPostcode(record PostcodeRecord) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save postcode %q: %w", record.Postcode, err)
	}
	return nil
}

// DeletePostcodes removes the given saved postcodes by id.
func (s *Store) DeletePostcodes(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.Delete(&PostcodeRecord{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete saved postcodes: %w", err)
	}
	return nil
}

// DeleteAllPostcodes wipes the saved postcode list.
func (s *Store) DeleteAllPostcodes() error {
	if err := s.db.Where("1 = 1").Delete(&PostcodeRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear saved postcodes: %w", err)
	}
	return nil
}
