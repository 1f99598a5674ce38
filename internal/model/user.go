// Package model defines database models
package model

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsActive     bool   `gorm:"default:false" json:"is_active"`

	// Owned posts go down with the user
	Posts []Post `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
