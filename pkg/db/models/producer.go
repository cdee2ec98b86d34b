package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Producer is the selling-side identity: a farm or food producer.
type Producer struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName         string         `gorm:"column:first_name;not null"`
	LastName          string         `gorm:"column:last_name;not null"`
	Commune           string         `gorm:"column:commune;not null"`
	Telephone         string         `gorm:"column:telephone;not null"`
	Email             string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash      string         `gorm:"column:password_hash;not null"`
	Description       *string        `gorm:"column:description"`
	PictureRef        *string        `gorm:"column:picture_ref"`
	ProductCategories pq.StringArray `gorm:"column:product_categories;type:text[];not null;default:ARRAY[]::text[]"`
	Verified          bool           `gorm:"column:verified;not null;default:false"`
	VerifyTokenHash   *string        `gorm:"column:verify_token_hash"`
	VerifyTokenExpiry *time.Time     `gorm:"column:verify_token_expiry"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
