package repositories

import (
	"sort"
	"sync"
	"time"

	"glucolog/internal/models"
)

// MockEntryRepository is an in-memory implementation of EntryRepository.
type MockEntryRepository struct {
	entries []models.GlucoseEntry
	nextID  uint
	mu      sync.RWMutex
}

// NewMockEntryRepository creates a new instance of MockEntryRepository.
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		nextID: 1,
	}
}

// Create appends a new entry.
func (r *MockEntryRepository) Create(entry *models.GlucoseEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// ListRecentByUser returns the newest entries of a single user.
func (r *MockEntryRepository) ListRecentByUser(userID uint, limit int) ([]models.GlucoseEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := make([]models.GlucoseEntry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			owned = append(owned, e)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].Timestamp.Equal(owned[j].Timestamp) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].Timestamp.After(owned[j].Timestamp)
	})
	if limit >= 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}
