package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marchelocal/marchelocal-backend/pkg/enums"
)

// AccountEmail keeps email uniqueness across both identity variants in one
// place. A row is written in the same transaction as the Producer or Buyer it
// points at, so two registrations with the same address cannot both land even
// when they target different variants.
type AccountEmail struct {
	Email     string     `gorm:"column:email;type:text;primaryKey"`
	Role      enums.Role `gorm:"column:role;type:text;not null"`
	AccountID uuid.UUID  `gorm:"column:account_id;type:uuid;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
