package models

import (
	"time"

	"gorm.io/gorm"
)

// GlucoseEntry is a single blood-glucose reading owned by a user.
type GlucoseEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Timestamp    time.Time `json:"timestamp" gorm:"not null;index"`
	GlucoseValue float64   `json:"glucose_value" gorm:"not null"`
	Medication   string    `json:"medication" gorm:"size:255"`
	Notes        string    `json:"notes" gorm:"type:text"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	User         *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName pins the table name to "glucose_entry".
func (GlucoseEntry) TableName() string {
	return "glucose_entry"
}

// BeforeCreate defaults the timestamp to the current UTC time.
func (e *GlucoseEntry) BeforeCreate(tx *gorm.DB) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
