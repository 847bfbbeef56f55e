package repositories

import "glucolog/internal/models"

// EntryRepository defines the interface for glucose entry data access.
type EntryRepository interface {
	Create(entry *models.GlucoseEntry) error
	// ListRecentByUser returns at most limit entries owned by userID, newest first.
	ListRecentByUser(userID uint, limit int) ([]models.GlucoseEntry, error)
}
