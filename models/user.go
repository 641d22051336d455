package models

import (
	"time"
)

// User is a registered account. Admins are provisioned with cmd/provision.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	Phone        string     `gorm:"size:20" json:"phone"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	DateJoined   time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	Donations    []Donation `gorm:"foreignKey:UserID" json:"-"`
}
