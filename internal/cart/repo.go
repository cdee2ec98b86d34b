package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
)

// ErrVersionConflict reports that a conditional cart write lost a race with a
// concurrent mutation.
var ErrVersionConflict = errors.New("cart version conflict")

// Repository exposes persistence operations for the cart aggregate.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts an empty cart for the buyer.
func (r *Repository) Create(ctx context.Context, record *models.Cart) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByBuyer loads the buyer's cart with lines, products and sellers attached.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Producer").
		First(&record, "buyer_id = ?", buyerID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveSnapshot persists the cart total and its full line set in one
// transaction. The cart row write is conditional on the version the caller
// read; a lost race returns ErrVersionConflict and nothing is written.
// Line order follows the slice order and is stored in position.
func (r *Repository) SaveSnapshot(ctx context.Context, cart *models.Cart, items []models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]any{
				"total_cents": cart.TotalCents,
				"version":     cart.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			cart.Version++
			return nil
		}
		for i := range items {
			if items[i].ID == uuid.Nil {
				items[i].ID = uuid.New()
			}
			items[i].CartID = cart.ID
			items[i].Position = i
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		cart.Version++
		return nil
	})
}
