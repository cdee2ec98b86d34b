package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single per-buyer cart. The buyer id carries a unique index so a
// second concurrent create cannot produce a duplicate, and Version backs the
// conditional write every mutation goes through.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID    uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex"`
	TotalCents int        `gorm:"column:total_cents;not null;default:0"`
	Version    int64      `gorm:"column:version;not null;default:0"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
