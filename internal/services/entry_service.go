package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"glucolog/internal/models"
	"glucolog/internal/repositories"
)

// DefaultRecentLimit is the number of entries shown on the dashboard.
const DefaultRecentLimit = 30

// EntryService handles business logic related to glucose entries.
type EntryService struct {
	repo      repositories.EntryRepository
	publisher EventPublisher
}

// NewEntryService creates a new EntryService. publisher may be nil.
func NewEntryService(repo repositories.EntryRepository, publisher EventPublisher) *EntryService {
	return &EntryService{
		repo:      repo,
		publisher: publisher,
	}
}

// ParseGlucoseValue parses raw form input as a finite number.
func ParseGlucoseValue(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidGlucoseValue)
	}
	return value, nil
}

// CreateEntry stores a reading for userID. Medication and notes are kept
// as given, empty strings included.
func (s *EntryService) CreateEntry(userID uint, rawValue, medication, notes string) (*models.GlucoseEntry, error) {
	value, err := ParseGlucoseValue(rawValue)
	if err != nil {
		return nil, err
	}

	entry := &models.GlucoseEntry{
		GlucoseValue: value,
		Medication:   medication,
		Notes:        notes,
		UserID:       userID,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	publishEvent(s.publisher, EventEntryCreated, map[string]interface{}{
		"entryID":      entry.ID,
		"userID":       entry.UserID,
		"glucoseValue": entry.GlucoseValue,
		"timestamp":    entry.Timestamp,
	})
	return entry, nil
}

// ListRecent returns up to limit of the user's entries, newest first.
// A non-positive limit means DefaultRecentLimit.
func (s *EntryService) ListRecent(userID uint, limit int) ([]models.GlucoseEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecentByUser(userID, limit)
}
