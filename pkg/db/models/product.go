package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a producer-owned catalog listing. Prices are euro cents.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID    uuid.UUID `gorm:"column:producer_id;type:uuid;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Description   string    `gorm:"column:description;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	Category      string    `gorm:"column:category;not null;index"`
	Quantity      int       `gorm:"column:quantity;not null;default:0"`
	Unit          string    `gorm:"column:unit;not null"`
	ImageRef      *string   `gorm:"column:image_ref"`
	StripePriceID *string   `gorm:"column:stripe_price_id"`
	Producer      *Producer `gorm:"foreignKey:ProducerID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
