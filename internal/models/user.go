// Package models contains data structures for the application's domain models.
package models

import "time"

// User mirrors an identity owned by the external identity provider. Only the
// identifier and display fields are kept locally.
type User struct {
	ID          uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
