package model

import (
	"time"
)

// Client is a customer of the store. Sales and the address go with it on delete.
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CPF       string    `json:"cpf" gorm:"type:char(11);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(20);not null"`
	Address   *Address  `json:"address" gorm:"constraint:OnDelete:CASCADE"`
	Sales     []Sale    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address is the postal address of a client (one per client)
type Address struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ClientID      uint      `json:"client_id" gorm:"uniqueIndex;not null"`
	Street        string    `json:"street" gorm:"type:varchar(255);not null"`
	Number        string    `json:"number" gorm:"type:varchar(10);not null"`
	Complement    *string   `json:"complement" gorm:"type:varchar(255)"`
	Neighbourhood string    `json:"neighbourhood" gorm:"type:varchar(255);not null"`
	City          string    `json:"city" gorm:"type:varchar(255);not null"`
	State         string    `json:"state" gorm:"type:char(2);not null"`
	PostalCode    string    `json:"postal_code" gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
