package models

import (
	"time"

	"github.com/google/uuid"
)

// Buyer is the purchasing-side identity: a restaurant owner.
type Buyer struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName         string     `gorm:"column:first_name;not null"`
	LastName          string     `gorm:"column:last_name;not null"`
	City              string     `gorm:"column:city;not null"`
	PostalCode        string     `gorm:"column:postal_code;not null"`
	PhoneNumber       string     `gorm:"column:phone_number;not null"`
	Email             string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash      string     `gorm:"column:password_hash;not null"`
	RestaurantName    string     `gorm:"column:restaurant_name;not null"`
	RestaurantAddress string     `gorm:"column:restaurant_address;not null"`
	Description       *string    `gorm:"column:description"`
	PictureRef        *string    `gorm:"column:picture_ref"`
	Verified          bool       `gorm:"column:verified;not null;default:false"`
	VerifyTokenHash   *string    `gorm:"column:verify_token_hash"`
	VerifyTokenExpiry *time.Time `gorm:"column:verify_token_expiry"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
