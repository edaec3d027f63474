package model

import (
	"time"
)

// User is an API operator able to authenticate against the service
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevokedToken records a bearer token invalidated by logout or refresh.
// Rows are only meaningful until ExpiresAt; after that the token is rejected anyway.
type RevokedToken struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}
