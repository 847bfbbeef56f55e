package models

// User represents a registered account.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"` // never the plaintext
}

// TableName pins the table name to "user".
func (User) TableName() string {
	return "user"
}
