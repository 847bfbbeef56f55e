package repositories

import (
	"fmt"

	"glucolog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMEntryRepository is a GORM implementation of EntryRepository.
type GORMEntryRepository struct {
	db *gorm.DB
}

// NewGORMEntryRepository creates a new instance of GORMEntryRepository.
func NewGORMEntryRepository(db *gorm.DB) *GORMEntryRepository {
	return &GORMEntryRepository{
		db: db,
	}
}

// Create inserts a new glucose entry. The write is committed immediately.
func (r *GORMEntryRepository) Create(entry *models.GlucoseEntry) error {
	if err := r.db.Omit("User").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create glucose entry: %w", err)
	}
	return nil
}

// ListRecentByUser retrieves the newest entries of a single user.
func (r *GORMEntryRepository) ListRecentByUser(userID uint, limit int) ([]models.GlucoseEntry, error) {
	var entries []models.GlucoseEntry
	err := r.db.
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for user %d: %w", userID, err)
	}
	return entries, nil
}
